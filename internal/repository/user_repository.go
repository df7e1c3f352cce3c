package repository

import (
	"context"
	"errors"

	"github.com/Omyelshetty/RentApp/internal/database"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type userRepository struct {
	db *database.Database
}

// NewUserRepository creates a PostgreSQL-backed UserRepository.
func NewUserRepository(db *database.Database) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, phone, role)
		VALUES ($1, $2, lower($3), $4, $5, $6)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Phone, u.Role).Scan(&u.CreatedAt)
	return translateError("insert user", err)
}

func (r *userRepository) getOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, phone, role, created_at
		FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(op, err)
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "get user", `id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "get user by email", `email = lower($1)`, email)
}
