package repository

import (
	"context"

	"github.com/Omyelshetty/RentApp/internal/database"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lookups return nil, nil when nothing matches; only storage failures are errors.
// Update and Delete report false when the row does not exist.

// TenantRepository defines data access for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*models.Tenant, error)
	// List returns tenants newest first.
	List(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, error)
	// Update also moves the tenant's login (the user-role account sharing its email) to
	// the new email.
	Update(ctx context.Context, tenant *models.Tenant) (bool, error)
	// Delete removes the tenant, its login, and its payment records. Accounts with other
	// roles are never removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// PropertyRepository defines data access for properties.
type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	// List returns properties ordered by name.
	List(ctx context.Context) ([]models.Property, error)
	Update(ctx context.Context, property *models.Property) (bool, error)
}

// PaymentRepository defines data access for the payment ledger.
type PaymentRepository interface {
	// Create inserts a record. A second record for the same tenant and period fails
	// with a *DuplicateKeyError on ConstraintPaymentPeriod.
	Create(ctx context.Context, payment *models.PaymentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error)
	GetByReceiptID(ctx context.Context, receiptID string) (*models.PaymentRecord, error)
	FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, month string, year int) (*models.PaymentRecord, error)
	// List returns records by payment date descending, ties broken by insertion order descending.
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error)
	Update(ctx context.Context, payment *models.PaymentRecord) (bool, error)
	// UpdateIf writes payment only while the stored row still has the status and amount
	// paid in expect. It reports false when the row is gone or has changed.
	UpdateIf(ctx context.Context, payment *models.PaymentRecord, expect PaymentState) (bool, error)
	// SetStatus moves a record from one status to another. It reports false when the
	// row is gone or no longer has status from.
	SetStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) (bool, error)
	// UpdateReceipt sets only the receipt columns.
	UpdateReceipt(ctx context.Context, id uuid.UUID, receipt ReceiptUpdate) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// PaymentState is the part of a stored record that a conditional write checks.
type PaymentState struct {
	Status     models.PaymentStatus
	AmountPaid decimal.Decimal
}

// ReceiptUpdate carries the receipt columns written by the receipt workers.
type ReceiptUpdate struct {
	URL    *string
	Error  *string
	Status models.ReceiptStatus
}

// UserRepository defines data access for login identities.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SettingsRepository persists the payment instructions shown to tenants.
type SettingsRepository interface {
	// GetPaymentOptions returns nil, nil when nothing has been saved yet.
	GetPaymentOptions(ctx context.Context) (*models.PaymentOptions, error)
	SavePaymentOptions(ctx context.Context, options models.PaymentOptions) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Tenants    TenantRepository
	Properties PropertyRepository
	Payments   PaymentRepository
	Users      UserRepository
	Settings   SettingsRepository
}

// NewPostgresStore returns the repositories backed by db.
func NewPostgresStore(db *database.Database) *Store {
	return &Store{
		Tenants:    NewTenantRepository(db),
		Properties: NewPropertyRepository(db),
		Payments:   NewPaymentRepository(db),
		Users:      NewUserRepository(db),
		Settings:   NewSettingsRepository(db),
	}
}
