package database

import (
	"context"
	"fmt"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id            UUID PRIMARY KEY,
		property_name TEXT NOT NULL,
		owner_name    TEXT NOT NULL,
		owner_email   TEXT NOT NULL DEFAULT '',
		owner_phone   TEXT NOT NULL DEFAULT '',
		address       TEXT NOT NULL DEFAULT '',
		total_units   INTEGER NOT NULL CHECK (total_units >= 1),
		status        TEXT NOT NULL DEFAULT 'active',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_users_email UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS tenants (
		id                     UUID PRIMARY KEY,
		first_name             TEXT NOT NULL,
		last_name              TEXT NOT NULL,
		email                  TEXT NOT NULL,
		phone                  TEXT NOT NULL DEFAULT '',
		apartment_number       TEXT NOT NULL,
		property_id            UUID REFERENCES properties (id) ON DELETE SET NULL,
		rent_amount            NUMERIC(12, 2) NOT NULL CHECK (rent_amount >= 0),
		status                 TEXT NOT NULL DEFAULT 'active',
		emergency_name         TEXT NOT NULL DEFAULT '',
		emergency_phone        TEXT NOT NULL DEFAULT '',
		emergency_relationship TEXT NOT NULL DEFAULT '',
		created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_tenants_email UNIQUE (email),
		CONSTRAINT uq_tenants_apartment UNIQUE (apartment_number)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		seq               BIGSERIAL NOT NULL,
		id                UUID PRIMARY KEY,
		tenant_id         UUID NOT NULL REFERENCES tenants (id) ON DELETE CASCADE,
		property_id       UUID REFERENCES properties (id) ON DELETE SET NULL,
		amount            NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
		amount_paid       NUMERIC(12, 2) NOT NULL DEFAULT 0,
		payment_method    TEXT NOT NULL,
		payment_date      TIMESTAMPTZ NOT NULL,
		status            TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		billing_month     TEXT NOT NULL,
		billing_year      INTEGER NOT NULL,
		receipt_id        TEXT NOT NULL,
		receipt_status    TEXT NOT NULL DEFAULT 'absent',
		receipt_url       TEXT,
		receipt_error     TEXT,
		gateway_reference TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_payments_tenant_period UNIQUE (tenant_id, billing_month, billing_year),
		CONSTRAINT uq_payments_receipt_id UNIQUE (receipt_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_date ON payments (payment_date DESC, seq DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status)`,
	`CREATE INDEX IF NOT EXISTS idx_tenants_status ON tenants (status)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables and indexes the repositories need.
func (db *Database) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
