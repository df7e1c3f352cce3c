package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Omyelshetty/RentApp/internal/database"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tenantColumns = `
	id, first_name, last_name, email, phone, apartment_number, property_id, rent_amount,
	status, emergency_name, emergency_phone, emergency_relationship, created_at, updated_at`

type tenantRepository struct {
	db *database.Database
}

// NewTenantRepository creates a PostgreSQL-backed TenantRepository.
func NewTenantRepository(db *database.Database) TenantRepository {
	return &tenantRepository{db: db}
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(
		&t.ID,
		&t.FirstName,
		&t.LastName,
		&t.Email,
		&t.Phone,
		&t.ApartmentNumber,
		&t.PropertyID,
		&t.RentAmount,
		&t.Status,
		&t.EmergencyContact.Name,
		&t.EmergencyContact.Phone,
		&t.EmergencyContact.Relationship,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) Create(ctx context.Context, t *models.Tenant) error {
	query := `
		INSERT INTO tenants (
			id, first_name, last_name, email, phone, apartment_number, property_id, rent_amount,
			status, emergency_name, emergency_phone, emergency_relationship
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		t.ID, t.FirstName, t.LastName, t.Email, t.Phone, t.ApartmentNumber, t.PropertyID, t.RentAmount,
		t.Status, t.EmergencyContact.Name, t.EmergencyContact.Phone, t.EmergencyContact.Relationship,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return translateError("insert tenant", err)
}

func (r *tenantRepository) getOne(ctx context.Context, op, where string, arg any) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE ` + where + ` LIMIT 1`

	t, err := scanTenant(r.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(op, err)
	}
	return t, nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return r.getOne(ctx, "get tenant", `id = $1`, id)
}

func (r *tenantRepository) GetByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	return r.getOne(ctx, "get tenant by email", `email = lower($1)`, email)
}

func (r *tenantRepository) List(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PropertyID != nil {
		args = append(args, *filter.PropertyID)
		conditions = append(conditions, fmt.Sprintf("property_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR apartment_number ILIKE $%d)",
			n, n, n, n))
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("list tenants", err)
	}
	defer rows.Close()

	results := make([]models.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant row: %w", err)
		}
		results = append(results, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate tenants", err)
	}
	return results, nil
}

// Update rewrites the tenant and moves its login to the new email in one transaction.
func (r *tenantRepository) Update(ctx context.Context, t *models.Tenant) (bool, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, translateError("begin tenant update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE users SET email = $2
		WHERE role = $3 AND email = (SELECT email FROM tenants WHERE id = $1) AND email <> $2
	`, t.ID, t.Email, models.RoleUser); err != nil {
		return false, translateError("move tenant login", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE tenants SET
			first_name = $2, last_name = $3, email = $4, phone = $5, apartment_number = $6,
			property_id = $7, rent_amount = $8, status = $9, emergency_name = $10,
			emergency_phone = $11, emergency_relationship = $12, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`,
		t.ID, t.FirstName, t.LastName, t.Email, t.Phone, t.ApartmentNumber,
		t.PropertyID, t.RentAmount, t.Status, t.EmergencyContact.Name,
		t.EmergencyContact.Phone, t.EmergencyContact.Relationship,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, translateError("update tenant", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, translateError("commit tenant update", err)
	}
	return true, nil
}

// Delete removes the tenant's login and the tenant in one transaction. Payments go with
// the tenant through ON DELETE CASCADE.
func (r *tenantRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, translateError("begin tenant delete", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM users WHERE role = $2 AND email = (SELECT email FROM tenants WHERE id = $1)`,
		id, models.RoleUser); err != nil {
		return false, translateError("delete tenant user", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return false, translateError("delete tenant", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, translateError("commit tenant delete", err)
	}
	return true, nil
}
