package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
)

// Unique constraint names shared by the PostgreSQL schema and the memory store.
const (
	ConstraintPaymentPeriod   = "uq_payments_tenant_period"
	ConstraintPaymentReceipt  = "uq_payments_receipt_id"
	ConstraintTenantEmail     = "uq_tenants_email"
	ConstraintTenantApartment = "uq_tenants_apartment"
	ConstraintUserEmail       = "uq_users_email"
)

var constraintFields = map[string]string{
	ConstraintPaymentPeriod:   "billingPeriod",
	ConstraintPaymentReceipt:  "receiptId",
	ConstraintTenantEmail:     "email",
	ConstraintTenantApartment: "apartmentNumber",
	ConstraintUserEmail:       "email",
}

var (
	// ErrDuplicateKey is wrapped by every DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrMissingReference means a foreign key points at a row that does not exist.
	ErrMissingReference = errors.New("referenced row does not exist")
	// ErrStorageUnavailable means the backing store could not be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// DuplicateKeyError reports a unique constraint violation and the API field it protects.
type DuplicateKeyError struct {
	Constraint string
	Field      string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key violates %s (%s)", e.Constraint, e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

func duplicateKey(constraint string) *DuplicateKeyError {
	field, ok := constraintFields[constraint]
	if !ok {
		field = "id"
	}
	return &DuplicateKeyError{Constraint: constraint, Field: field}
}

// translateError converts driver errors into the repository taxonomy.
// 23505 -> *DuplicateKeyError, 23503 -> ErrMissingReference,
// connection failures -> ErrStorageUnavailable. Other errors are wrapped with op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return duplicateKey(pgErr.ConstraintName)
		case pgErr.Code == "23503":
			return fmt.Errorf("%s: %w (%s)", op, ErrMissingReference, pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if isConnectionError(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if errors.Is(err, puddle.ErrClosedPool) || pgconn.Timeout(err) {
		return true
	}
	// Deadline hit while waiting for a pooled connection.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
