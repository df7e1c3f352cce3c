package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a rent payment was (or will be) made.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodPending      PaymentMethod = "pending"
	PaymentMethodGateway      PaymentMethod = "gateway"
	PaymentMethodUPI          PaymentMethod = "upi"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCheck,
		PaymentMethodPending, PaymentMethodGateway, PaymentMethodUPI:
		return true
	}
	return false
}

// PaymentStatus is the state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
	PaymentStatusPartial PaymentStatus = "partial"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusPartial:
		return true
	}
	return false
}

// PaymentTransitions lists the statuses reachable from each status through settlement
// or the overdue sweep. Paid is terminal; only an admin correction can move it.
var PaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusPartial, PaymentStatusOverdue},
	PaymentStatusPartial: {PaymentStatusPaid, PaymentStatusPartial},
	PaymentStatusOverdue: {PaymentStatusPaid, PaymentStatusPartial},
	PaymentStatusPaid:    {},
}

// ErrInvalidTransition is wrapped by ValidateTransition failures.
var ErrInvalidTransition = errors.New("invalid payment status transition")

// ValidateTransition checks target against PaymentTransitions for current.
func ValidateTransition(current, target PaymentStatus) error {
	allowed, ok := PaymentTransitions[current]
	if !ok {
		return fmt.Errorf("%w: unknown current status %q", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}

// ReceiptStatus tracks the receipt document of a payment record.
type ReceiptStatus string

const (
	ReceiptStatusAbsent  ReceiptStatus = "absent"
	ReceiptStatusPending ReceiptStatus = "pending"
	ReceiptStatusReady   ReceiptStatus = "ready"
	ReceiptStatusFailed  ReceiptStatus = "failed"
)

// PaymentRecord is one rent payment (or due) of a tenant for a billing period.
// At most one record exists per (TenantID, BillingMonth, BillingYear).
type PaymentRecord struct {
	PaymentDate      time.Time       `json:"paymentDate"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	PropertyID       *uuid.UUID      `json:"propertyId,omitempty"`
	ReceiptURL       *string         `json:"receiptUrl"`
	ReceiptError     *string         `json:"receiptError,omitempty"`
	GatewayReference *string         `json:"gatewayReference,omitempty"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
	Status           PaymentStatus   `json:"status"`
	Description      string          `json:"description"`
	BillingMonth     string          `json:"month"`
	ReceiptID        string          `json:"receiptId"`
	ReceiptStatus    ReceiptStatus   `json:"receiptStatus"`
	Amount           decimal.Decimal `json:"amount"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	BillingYear      int             `json:"year"`
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenantId"`
}

// Period returns the billing period of the record.
func (p PaymentRecord) Period() (BillingPeriod, error) {
	return NewBillingPeriod(p.BillingMonth, p.BillingYear)
}

// Outstanding returns the amount still owed on the record, never negative.
func (p PaymentRecord) Outstanding() decimal.Decimal {
	rest := p.Amount.Sub(p.AmountPaid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Collected returns the money actually received for the record.
func (p PaymentRecord) Collected() decimal.Decimal {
	switch p.Status {
	case PaymentStatusPaid:
		return p.Amount
	case PaymentStatusPartial:
		return p.AmountPaid
	}
	return decimal.Zero
}

// PaymentFilter narrows payment listings. Nil fields are ignored.
// From and To are inclusive bounds on PaymentDate.
type PaymentFilter struct {
	TenantID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Status   *PaymentStatus
	Method   *PaymentMethod
}
