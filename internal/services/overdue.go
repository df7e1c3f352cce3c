package services

import (
	"context"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
)

// SweepResult summarises one overdue sweep.
type SweepResult struct {
	PaymentIDs    []uuid.UUID `json:"paymentIds"`
	Checked       int         `json:"checked"`
	MarkedOverdue int         `json:"markedOverdue"`
}

// OverdueSweeper moves pending records past their due date to overdue.
type OverdueSweeper interface {
	Sweep(ctx context.Context, now time.Time) (*SweepResult, error)
}

type overdueSweeper struct {
	payments repository.PaymentRepository
	policy   BillingPolicy
	log      *logger.Logger
}

// NewOverdueSweeper creates an OverdueSweeper applying policy.
func NewOverdueSweeper(payments repository.PaymentRepository, policy BillingPolicy, log *logger.Logger) OverdueSweeper {
	return &overdueSweeper{payments: payments, policy: policy, log: log}
}

func (s *overdueSweeper) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	pending := models.PaymentStatusPending
	records, err := s.payments.List(ctx, models.PaymentFilter{Status: &pending})
	if err != nil {
		s.log.Error("Failed to list pending payments", err, nil)
		return nil, storeError("list pending payments", "", err)
	}

	result := &SweepResult{Checked: len(records), PaymentIDs: []uuid.UUID{}}
	for i := range records {
		record := records[i]
		if !s.policy.IsOverdue(record, now) {
			continue
		}
		if err := models.ValidateTransition(record.Status, models.PaymentStatusOverdue); err != nil {
			continue
		}

		ok, err := s.payments.SetStatus(ctx, record.ID, models.PaymentStatusPending, models.PaymentStatusOverdue)
		if err != nil {
			s.log.Error("Failed to mark payment overdue", err, map[string]interface{}{
				"payment_id": record.ID.String(),
			})
			return result, storeError("mark payment overdue", "", err)
		}
		if !ok {
			// Settled or deleted since the listing.
			continue
		}
		result.MarkedOverdue++
		result.PaymentIDs = append(result.PaymentIDs, record.ID)
	}

	s.log.Info("Overdue sweep finished", map[string]interface{}{
		"checked":        result.Checked,
		"marked_overdue": result.MarkedOverdue,
	})
	return result, nil
}
