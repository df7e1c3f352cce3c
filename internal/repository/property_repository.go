package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Omyelshetty/RentApp/internal/database"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const propertyColumns = `
	id, property_name, owner_name, owner_email, owner_phone, address, total_units,
	status, created_at, updated_at`

type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a PostgreSQL-backed PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{db: db}
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	if err := row.Scan(
		&p.ID, &p.PropertyName, &p.OwnerName, &p.OwnerEmail, &p.OwnerPhone,
		&p.Address, &p.TotalUnits, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) Create(ctx context.Context, p *models.Property) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO properties (
			id, property_name, owner_name, owner_email, owner_phone, address, total_units, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		p.ID, p.PropertyName, p.OwnerName, p.OwnerEmail, p.OwnerPhone, p.Address, p.TotalUnits, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return translateError("insert property", err)
}

func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	p, err := scanProperty(r.db.Pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError("get property", err)
	}
	return p, nil
}

func (r *propertyRepository) List(ctx context.Context) ([]models.Property, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties ORDER BY property_name, id`)
	if err != nil {
		return nil, translateError("list properties", err)
	}
	defer rows.Close()

	results := make([]models.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate properties", err)
	}
	return results, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *models.Property) (bool, error) {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE properties SET
			property_name = $2, owner_name = $3, owner_email = $4, owner_phone = $5,
			address = $6, total_units = $7, status = $8, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`,
		p.ID, p.PropertyName, p.OwnerName, p.OwnerEmail, p.OwnerPhone, p.Address, p.TotalUnits, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, translateError("update property", err)
	}
	return true, nil
}
