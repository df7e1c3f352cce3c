package services

import (
	"time"

	"github.com/Omyelshetty/RentApp/internal/models"
)

// Option customises a service at construction.
type Option func(*options)

type options struct {
	now     func() time.Time
	billing BillingPolicy
}

// WithClock replaces time.Now, for tests and backfills.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBillingPolicy sets the policy used to decide the current billing period.
func WithBillingPolicy(policy BillingPolicy) Option {
	return func(o *options) { o.billing = policy }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, billing: DefaultBillingPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BillingPolicy decides when rent falls due and when a pending record becomes overdue.
type BillingPolicy struct {
	Location  *time.Location
	DueDay    int
	GraceDays int
}

// DefaultBillingPolicy is rent due on the 5th with no grace period, in UTC.
func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{DueDay: 5, Location: time.UTC}
}

func (p BillingPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// DueDate returns the end of the due day of period.
func (p BillingPolicy) DueDate(period models.BillingPeriod) time.Time {
	return period.DueDate(p.DueDay, p.location())
}

// OverdueAfter returns the instant after which an unpaid record for period is overdue.
func (p BillingPolicy) OverdueAfter(period models.BillingPeriod) time.Time {
	return p.DueDate(period).AddDate(0, 0, p.GraceDays)
}

// IsOverdue reports whether a pending record should be marked overdue at now.
func (p BillingPolicy) IsOverdue(record models.PaymentRecord, now time.Time) bool {
	if record.Status != models.PaymentStatusPending {
		return false
	}
	period, err := record.Period()
	if err != nil {
		return false
	}
	return now.After(p.OverdueAfter(period))
}
