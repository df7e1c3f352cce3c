package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Omyelshetty/RentApp/internal/database"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/jackc/pgx/v5"
)

const paymentOptionsKey = "payment_options"

type settingsRepository struct {
	db *database.Database
}

// NewSettingsRepository creates a PostgreSQL-backed SettingsRepository storing JSON values.
func NewSettingsRepository(db *database.Database) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetPaymentOptions(ctx context.Context) (*models.PaymentOptions, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, paymentOptionsKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError("get payment options", err)
	}

	var options models.PaymentOptions
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("failed to decode payment options: %w", err)
	}
	return &options, nil
}

func (r *settingsRepository) SavePaymentOptions(ctx context.Context, options models.PaymentOptions) error {
	raw, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode payment options: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, paymentOptionsKey, raw)
	return translateError("save payment options", err)
}
