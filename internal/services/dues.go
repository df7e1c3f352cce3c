package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatedDue describes a pending record created by a generation run.
type CreatedDue struct {
	TenantName      string          `json:"tenantName"`
	ApartmentNumber string          `json:"apartmentNumber"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentID       uuid.UUID       `json:"paymentId"`
}

// FailedDue describes a tenant whose record could not be created.
type FailedDue struct {
	TenantName string `json:"tenantName"`
	Error      string `json:"error"`
}

// GenerationResult summarises one generation run. Tenants that already had a record
// for the period are counted in SkippedCount only.
type GenerationResult struct {
	Period       string       `json:"period"`
	Created      []CreatedDue `json:"created"`
	Failed       []FailedDue  `json:"failed"`
	CreatedCount int          `json:"createdCount"`
	SkippedCount int          `json:"skippedCount"`
}

// DueGenerator creates the monthly pending records.
type DueGenerator interface {
	// GenerateMonthlyDues creates one pending record per active tenant for the period.
	// An empty month and zero year default to the current calendar month. Safe to re-run.
	GenerateMonthlyDues(ctx context.Context, month string, year int) (*GenerationResult, error)
}

type dueGenerator struct {
	payments repository.PaymentRepository
	tenants  repository.TenantRepository
	policy   BillingPolicy
	log      *logger.Logger
	now      func() time.Time
}

// NewDueGenerator creates a DueGenerator.
func NewDueGenerator(
	payments repository.PaymentRepository,
	tenants repository.TenantRepository,
	policy BillingPolicy,
	log *logger.Logger,
	opts ...Option,
) DueGenerator {
	o := buildOptions(opts)
	return &dueGenerator{
		payments: payments,
		tenants:  tenants,
		policy:   policy,
		log:      log,
		now:      o.now,
	}
}

func (g *dueGenerator) period(month string, year int) (models.BillingPeriod, error) {
	current := models.PeriodOf(g.now().In(g.policy.location()))
	if month == "" && year == 0 {
		return current, nil
	}
	if month == "" {
		month = current.MonthName()
	}
	if year == 0 {
		year = current.Year
	}
	period, err := models.NewBillingPeriod(month, year)
	if err != nil {
		if _, monthErr := models.ParseMonth(month); monthErr != nil {
			return models.BillingPeriod{}, invalid("month", "must be an English month name")
		}
		return models.BillingPeriod{}, invalid("year", "must be between 1970 and 9999")
	}
	return period, nil
}

func (g *dueGenerator) GenerateMonthlyDues(ctx context.Context, month string, year int) (*GenerationResult, error) {
	period, err := g.period(month, year)
	if err != nil {
		return nil, err
	}

	active := models.TenantStatusActive
	tenants, err := g.tenants.List(ctx, models.TenantFilter{Status: &active})
	if err != nil {
		g.log.Error("Failed to list active tenants", err, map[string]interface{}{
			"period": period.String(),
		})
		return nil, storeError("list active tenants", "", err)
	}

	g.log.Info("Generating monthly dues", map[string]interface{}{
		"period":  period.String(),
		"tenants": len(tenants),
	})

	result := &GenerationResult{
		Period:  period.String(),
		Created: []CreatedDue{},
		Failed:  []FailedDue{},
	}
	dueDate := g.policy.DueDate(period).UTC()

	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !tenant.RentAmount.IsPositive() {
			g.log.Warn("Skipping tenant without rent amount", map[string]interface{}{
				"tenant_id": tenant.ID.String(),
			})
			result.SkippedCount++
			continue
		}

		existing, err := g.payments.FindByTenantAndPeriod(ctx, tenant.ID, period.MonthName(), period.Year)
		if err != nil {
			g.fail(result, tenant, err)
			continue
		}
		if existing != nil {
			result.SkippedCount++
			continue
		}

		record := &models.PaymentRecord{
			ID:            uuid.New(),
			TenantID:      tenant.ID,
			PropertyID:    tenant.PropertyID,
			Amount:        tenant.RentAmount,
			AmountPaid:    decimal.Zero,
			PaymentMethod: models.PaymentMethodPending,
			PaymentDate:   dueDate,
			Status:        models.PaymentStatusPending,
			Description:   fmt.Sprintf("Monthly rent for %s", period),
			BillingMonth:  period.MonthName(),
			BillingYear:   period.Year,
			ReceiptID:     NewReceiptID(g.now()),
			ReceiptStatus: models.ReceiptStatusAbsent,
		}

		if err := createWithFreshReceiptID(ctx, g.payments, record, g.now); err != nil {
			var dup *repository.DuplicateKeyError
			if errors.As(err, &dup) && dup.Constraint == repository.ConstraintPaymentPeriod {
				// Lost the race to a concurrent run.
				result.SkippedCount++
				continue
			}
			g.fail(result, tenant, err)
			continue
		}

		result.Created = append(result.Created, CreatedDue{
			TenantName:      tenant.FullName(),
			ApartmentNumber: tenant.ApartmentNumber,
			Amount:          record.Amount,
			PaymentID:       record.ID,
		})
	}
	result.CreatedCount = len(result.Created)

	g.log.Info("Monthly dues generated", map[string]interface{}{
		"period":  period.String(),
		"created": result.CreatedCount,
		"skipped": result.SkippedCount,
		"failed":  len(result.Failed),
	})

	return result, nil
}

func (g *dueGenerator) fail(result *GenerationResult, tenant models.Tenant, err error) {
	g.log.Error("Failed to create monthly due", err, map[string]interface{}{
		"tenant_id": tenant.ID.String(),
		"period":    result.Period,
	})
	msg := "could not create payment record"
	if errors.Is(err, repository.ErrStorageUnavailable) {
		msg = "storage unavailable"
	}
	result.Failed = append(result.Failed, FailedDue{TenantName: tenant.FullName(), Error: msg})
}
