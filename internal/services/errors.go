package services

import (
	"errors"
	"fmt"

	"github.com/Omyelshetty/RentApp/internal/repository"
)

// ErrStorageUnavailable is returned when the backing store cannot be reached.
var ErrStorageUnavailable = repository.ErrStorageUnavailable

// ErrGatewayDisabled is returned by gateway operations when no gateway is configured.
var ErrGatewayDisabled = errors.New("payment gateway is not configured")

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports that an id did not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a uniqueness or state conflict on a field.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func notFound(resource string, id fmt.Stringer) error {
	return &NotFoundError{Resource: resource, ID: id.String()}
}

// conflictMessages gives each unique field a user-facing message.
var conflictMessages = map[string]string{
	"billingPeriod":   "a payment already exists for this tenant and billing period",
	"email":           "email is already registered",
	"apartmentNumber": "apartment number is already assigned to another tenant",
	"receiptId":       "receipt id already exists",
}

// storeError maps repository errors into the service taxonomy. Duplicate keys become
// *ConflictError, missing references a *ValidationError on refField, and storage
// outages keep ErrStorageUnavailable in the chain.
func storeError(op, refField string, err error) error {
	var dup *repository.DuplicateKeyError
	if errors.As(err, &dup) {
		msg, ok := conflictMessages[dup.Field]
		if !ok {
			msg = dup.Field + " must be unique"
		}
		return &ConflictError{Field: dup.Field, Message: msg}
	}
	if errors.Is(err, repository.ErrMissingReference) && refField != "" {
		return invalid(refField, "references a record that does not exist")
	}
	return fmt.Errorf("%s: %w", op, err)
}
