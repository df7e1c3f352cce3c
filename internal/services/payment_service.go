package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptEmitter renders receipts for paid records and removes their files.
type ReceiptEmitter interface {
	// Emit renders the receipt of the payment and waits, bounded, for the outcome.
	// The outcome is written to the record's receipt fields either way.
	Emit(ctx context.Context, paymentID uuid.UUID) error
	// Discard deletes the receipt file, if any.
	Discard(receiptID string) error
}

// CreatePaymentInput is an admin-recorded payment.
type CreatePaymentInput struct {
	PaymentDate   *time.Time
	AmountPaid    *decimal.Decimal
	PropertyID    *uuid.UUID
	PaymentMethod models.PaymentMethod
	Status        models.PaymentStatus
	Description   string
	BillingMonth  string
	Amount        decimal.Decimal
	BillingYear   int
	TenantID      uuid.UUID
}

// PaymentPatch is a partial admin correction. Nil fields are left unchanged.
type PaymentPatch struct {
	Amount        *decimal.Decimal
	AmountPaid    *decimal.Decimal
	PaymentMethod *models.PaymentMethod
	PaymentDate   *time.Time
	Status        *models.PaymentStatus
	Description   *string
	BillingMonth  *string
	BillingYear   *int
}

// Settlement records money received against an existing record. A zero Amount
// settles the full outstanding amount.
type Settlement struct {
	PaidAt      time.Time
	Reference   *string
	Description *string
	Method      models.PaymentMethod
	Amount      decimal.Decimal
}

// TenantSummary is the tenant block of the monthly-due view.
type TenantSummary struct {
	Name            string `json:"name"`
	ApartmentNumber string `json:"apartmentNumber"`
	PropertyName    string `json:"propertyName"`
	OwnerName       string `json:"ownerName"`
}

// MonthlyDue is the caller's record for the current billing period.
type MonthlyDue struct {
	Payment *models.PaymentRecord `json:"payment"`
	Tenant  TenantSummary         `json:"tenant"`
}

// PaymentService is the payment ledger.
type PaymentService interface {
	// CreatePayment records a payment. When a record already exists for the tenant and
	// period and is not yet paid, that record is settled instead of inserting a new one.
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*models.PaymentRecord, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, patch PaymentPatch) (*models.PaymentRecord, error)
	DeletePayment(ctx context.Context, id uuid.UUID) error
	GetPayment(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error)
	GetPaymentByReceiptID(ctx context.Context, receiptID string) (*models.PaymentRecord, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error)
	FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, month string, year int) (*models.PaymentRecord, error)
	SettlePayment(ctx context.Context, id uuid.UUID, settlement Settlement) (*models.PaymentRecord, error)
	// RegenerateReceipt re-renders the receipt of a paid record.
	RegenerateReceipt(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error)
	// ListForIdentity returns the records of the tenant whose email matches the caller.
	ListForIdentity(ctx context.Context, email string) ([]models.PaymentRecord, error)
	MonthlyDue(ctx context.Context, email string) (*MonthlyDue, error)
}

type paymentService struct {
	payments   repository.PaymentRepository
	tenants    repository.TenantRepository
	properties repository.PropertyRepository
	receipts   ReceiptEmitter
	log        *logger.Logger
	now        func() time.Time
	billing    BillingPolicy
}

// NewPaymentService creates the ledger service. receipts may be nil, in which case
// records keep ReceiptStatus absent.
func NewPaymentService(
	payments repository.PaymentRepository,
	tenants repository.TenantRepository,
	properties repository.PropertyRepository,
	receipts ReceiptEmitter,
	log *logger.Logger,
	opts ...Option,
) PaymentService {
	o := buildOptions(opts)
	return &paymentService{
		payments:   payments,
		tenants:    tenants,
		properties: properties,
		receipts:   receipts,
		log:        log,
		now:        o.now,
		billing:    o.billing,
	}
}

// NewReceiptID returns an unguessable receipt identifier, e.g. RENT-1709251200000-3f9a1c.
func NewReceiptID(now time.Time) string {
	return fmt.Sprintf("RENT-%d-%s", now.UnixMilli(), uuid.NewString()[:6])
}

// createWithFreshReceiptID inserts record. Receipt ids minted in the same millisecond
// differ only in a short random suffix, so a clash on the receipt id is retried once
// with a new one.
func createWithFreshReceiptID(ctx context.Context, payments repository.PaymentRepository, record *models.PaymentRecord, now func() time.Time) error {
	err := payments.Create(ctx, record)
	var dup *repository.DuplicateKeyError
	if errors.As(err, &dup) && dup.Constraint == repository.ConstraintPaymentReceipt {
		record.ReceiptID = NewReceiptID(now())
		err = payments.Create(ctx, record)
	}
	return err
}

func validateMethod(method models.PaymentMethod) error {
	if method == "" {
		return invalid("paymentMethod", "is required")
	}
	if !method.Valid() {
		return invalid("paymentMethod", "must be one of cash, card, bank_transfer, check, pending, gateway, upi")
	}
	return nil
}

func validateStatus(status models.PaymentStatus) error {
	if !status.Valid() {
		return invalid("status", "must be one of pending, paid, overdue, partial")
	}
	return nil
}

// resolvePeriod uses month/year when given and the payment date otherwise.
func resolvePeriod(month string, year int, date time.Time) (models.BillingPeriod, error) {
	period := models.PeriodOf(date)
	if strings.TrimSpace(month) != "" {
		m, err := models.ParseMonth(month)
		if err != nil {
			return models.BillingPeriod{}, invalid("month", "must be an English month name")
		}
		period.Month = m
	}
	if year != 0 {
		period.Year = year
	}
	if _, err := models.NewBillingPeriod(period.MonthName(), period.Year); err != nil {
		return models.BillingPeriod{}, invalid("year", "must be between 1970 and 9999")
	}
	return period, nil
}

func (s *paymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*models.PaymentRecord, error) {
	if input.TenantID == uuid.Nil {
		return nil, invalid("tenantId", "is required")
	}
	if !input.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than 0")
	}
	if input.PaymentDate == nil || input.PaymentDate.IsZero() {
		return nil, invalid("paymentDate", "is required")
	}
	if err := validateMethod(input.PaymentMethod); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = models.PaymentStatusPaid
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	period, err := resolvePeriod(input.BillingMonth, input.BillingYear, *input.PaymentDate)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		return nil, storeError("load tenant", "", err)
	}
	if tenant == nil {
		return nil, notFound("tenant", input.TenantID)
	}

	existing, err := s.payments.FindByTenantAndPeriod(ctx, tenant.ID, period.MonthName(), period.Year)
	if err != nil {
		return nil, storeError("find payment for period", "", err)
	}
	if existing != nil {
		return s.settleExisting(ctx, existing, input, status)
	}

	record := &models.PaymentRecord{
		ID:            uuid.New(),
		TenantID:      tenant.ID,
		PropertyID:    tenant.PropertyID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		PaymentDate:   input.PaymentDate.UTC(),
		Status:        status,
		Description:   strings.TrimSpace(input.Description),
		BillingMonth:  period.MonthName(),
		BillingYear:   period.Year,
		ReceiptID:     NewReceiptID(s.now()),
		ReceiptStatus: models.ReceiptStatusAbsent,
	}
	if input.PropertyID != nil {
		record.PropertyID = input.PropertyID
	}
	if err := applyAmountPaid(record, input.AmountPaid); err != nil {
		return nil, err
	}
	if record.Status == models.PaymentStatusPaid && s.receipts != nil {
		record.ReceiptStatus = models.ReceiptStatusPending
	}

	if err := createWithFreshReceiptID(ctx, s.payments, record, s.now); err != nil {
		s.log.Error("Failed to insert payment", err, map[string]interface{}{
			"tenant_id": tenant.ID.String(),
			"period":    period.String(),
		})
		return nil, storeError("insert payment", "propertyId", err)
	}

	s.log.Info("Payment recorded", map[string]interface{}{
		"payment_id": record.ID.String(),
		"tenant_id":  tenant.ID.String(),
		"amount":     record.Amount.String(),
		"status":     record.Status,
		"period":     period.String(),
	})

	return s.afterWrite(ctx, record)
}

// applyAmountPaid derives AmountPaid from the status: the full amount for paid,
// the explicit value for partial, zero otherwise.
func applyAmountPaid(record *models.PaymentRecord, amountPaid *decimal.Decimal) error {
	switch record.Status {
	case models.PaymentStatusPaid:
		record.AmountPaid = record.Amount
	case models.PaymentStatusPartial:
		if amountPaid == nil || !amountPaid.IsPositive() || amountPaid.GreaterThanOrEqual(record.Amount) {
			return invalid("amountPaid", "must be greater than 0 and less than amount for a partial payment")
		}
		record.AmountPaid = *amountPaid
	default:
		record.AmountPaid = decimal.Zero
		if amountPaid != nil && amountPaid.IsPositive() {
			return invalid("amountPaid", "must be empty unless the payment is paid or partial")
		}
	}
	return nil
}

// settleExisting turns a create call for an already-billed period into a settlement
// of the existing record.
func (s *paymentService) settleExisting(ctx context.Context, existing *models.PaymentRecord, input CreatePaymentInput, status models.PaymentStatus) (*models.PaymentRecord, error) {
	if existing.Status == models.PaymentStatusPaid {
		return nil, &ConflictError{Field: "billingPeriod", Message: conflictMessages["billingPeriod"]}
	}
	if status != models.PaymentStatusPaid && status != models.PaymentStatusPartial {
		return nil, &ConflictError{Field: "billingPeriod", Message: conflictMessages["billingPeriod"]}
	}

	settlement := Settlement{
		PaidAt: *input.PaymentDate,
		Method: input.PaymentMethod,
		Amount: input.Amount,
	}
	if status == models.PaymentStatusPartial && input.AmountPaid != nil {
		settlement.Amount = *input.AmountPaid
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		settlement.Description = &desc
	}

	s.log.Info("Settling existing payment for period", map[string]interface{}{
		"payment_id": existing.ID.String(),
		"tenant_id":  existing.TenantID.String(),
		"period":     existing.BillingMonth + " " + fmt.Sprint(existing.BillingYear),
	})
	return s.settle(ctx, existing, settlement)
}

func (s *paymentService) SettlePayment(ctx context.Context, id uuid.UUID, settlement Settlement) (*models.PaymentRecord, error) {
	record, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, record, settlement)
}

// maxSettleAttempts bounds how often a settlement is recomputed after losing a race
// with another write to the same record.
const maxSettleAttempts = 3

var errStaleRecord = errors.New("payment changed since it was read")

func (s *paymentService) settle(ctx context.Context, record *models.PaymentRecord, settlement Settlement) (*models.PaymentRecord, error) {
	if err := validateMethod(settlement.Method); err != nil {
		return nil, err
	}
	if settlement.Method == models.PaymentMethodPending {
		return nil, invalid("paymentMethod", "must be the method the money was received by")
	}
	if settlement.Amount.IsNegative() {
		return nil, invalid("amount", "must not be negative")
	}

	for attempt := 1; ; attempt++ {
		settled, err := s.applySettlement(ctx, *record, settlement)
		if !errors.Is(err, errStaleRecord) {
			return settled, err
		}
		if attempt == maxSettleAttempts {
			return nil, &ConflictError{Field: "status", Message: "payment was changed by another request, try again"}
		}
		s.log.Debug("Payment changed during settlement, retrying", map[string]interface{}{
			"payment_id": record.ID.String(),
			"attempt":    attempt,
		})
		if record, err = s.GetPayment(ctx, record.ID); err != nil {
			return nil, err
		}
	}
}

// applySettlement writes the settlement only if the record is still in the state it was
// read in, and returns errStaleRecord otherwise.
func (s *paymentService) applySettlement(ctx context.Context, record models.PaymentRecord, settlement Settlement) (*models.PaymentRecord, error) {
	expect := repository.PaymentState{Status: record.Status, AmountPaid: record.AmountPaid}

	received := settlement.Amount
	if received.IsZero() {
		received = record.Outstanding()
	}
	paid := record.AmountPaid.Add(received)

	target := models.PaymentStatusPartial
	if paid.GreaterThanOrEqual(record.Amount) {
		target = models.PaymentStatusPaid
	}
	if err := models.ValidateTransition(record.Status, target); err != nil {
		return nil, &ConflictError{
			Field:   "status",
			Message: fmt.Sprintf("a %s payment cannot become %s", record.Status, target),
		}
	}

	previous := record.Status
	record.Status = target
	record.AmountPaid = paid
	record.PaymentMethod = settlement.Method
	record.PaymentDate = s.now().UTC()
	if !settlement.PaidAt.IsZero() {
		record.PaymentDate = settlement.PaidAt.UTC()
	}
	if settlement.Reference != nil {
		record.GatewayReference = settlement.Reference
	}
	if settlement.Description != nil {
		record.Description = *settlement.Description
	}
	if target == models.PaymentStatusPaid && s.receipts != nil {
		record.ReceiptStatus = models.ReceiptStatusPending
		record.ReceiptURL = nil
		record.ReceiptError = nil
	}

	ok, err := s.payments.UpdateIf(ctx, &record, expect)
	if err != nil {
		return nil, storeError("settle payment", "", err)
	}
	if !ok {
		return nil, errStaleRecord
	}

	s.log.Info("Payment settled", map[string]interface{}{
		"payment_id":  record.ID.String(),
		"from":        previous,
		"to":          target,
		"amount_paid": record.AmountPaid.String(),
		"method":      record.PaymentMethod,
	})

	return s.afterWrite(ctx, &record)
}

// afterWrite emits the receipt of a record that became paid and returns its latest state.
func (s *paymentService) afterWrite(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error) {
	if record.Status != models.PaymentStatusPaid || record.ReceiptStatus != models.ReceiptStatusPending {
		return record, nil
	}

	if err := s.receipts.Emit(ctx, record.ID); err != nil {
		// The record is durable; its receipt status tells the caller what happened.
		s.log.Warn("Receipt not ready", map[string]interface{}{
			"payment_id": record.ID.String(),
			"receipt_id": record.ReceiptID,
			"error":      err.Error(),
		})
	}

	latest, err := s.payments.GetByID(ctx, record.ID)
	if err != nil || latest == nil {
		return record, nil
	}
	return latest, nil
}

func (s *paymentService) UpdatePayment(ctx context.Context, id uuid.UUID, patch PaymentPatch) (*models.PaymentRecord, error) {
	record, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	wasPaid := record.Status == models.PaymentStatusPaid

	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return nil, invalid("amount", "must be greater than 0")
		}
		record.Amount = *patch.Amount
	}
	if patch.PaymentMethod != nil {
		if err := validateMethod(*patch.PaymentMethod); err != nil {
			return nil, err
		}
		record.PaymentMethod = *patch.PaymentMethod
	}
	if patch.PaymentDate != nil {
		if patch.PaymentDate.IsZero() {
			return nil, invalid("paymentDate", "is required")
		}
		record.PaymentDate = patch.PaymentDate.UTC()
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return nil, err
		}
		record.Status = *patch.Status
	}
	if patch.Description != nil {
		record.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.BillingMonth != nil || patch.BillingYear != nil {
		month, year := record.BillingMonth, record.BillingYear
		if patch.BillingMonth != nil {
			month = *patch.BillingMonth
		}
		if patch.BillingYear != nil {
			year = *patch.BillingYear
		}
		period, err := resolvePeriod(month, year, record.PaymentDate)
		if err != nil {
			return nil, err
		}
		record.BillingMonth, record.BillingYear = period.MonthName(), period.Year
	}

	switch {
	case record.Status == models.PaymentStatusPaid:
		record.AmountPaid = record.Amount
	case record.Status == models.PaymentStatusPartial && patch.AmountPaid != nil:
		if err := applyAmountPaid(record, patch.AmountPaid); err != nil {
			return nil, err
		}
	case record.Status == models.PaymentStatusPartial:
		if !record.AmountPaid.IsPositive() || record.AmountPaid.GreaterThanOrEqual(record.Amount) {
			return nil, invalid("amountPaid", "must be greater than 0 and less than amount for a partial payment")
		}
	case patch.AmountPaid != nil:
		record.AmountPaid = *patch.AmountPaid
	}

	becamePaid := !wasPaid && record.Status == models.PaymentStatusPaid
	if becamePaid && s.receipts != nil {
		record.ReceiptStatus = models.ReceiptStatusPending
		record.ReceiptURL = nil
		record.ReceiptError = nil
	}

	ok, err := s.payments.Update(ctx, record)
	if err != nil {
		return nil, storeError("update payment", "", err)
	}
	if !ok {
		return nil, notFound("payment", id)
	}

	s.log.Info("Payment updated", map[string]interface{}{
		"payment_id": id.String(),
		"status":     record.Status,
		"was_paid":   wasPaid,
	})

	return s.afterWrite(ctx, record)
}

func (s *paymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	record, err := s.GetPayment(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.payments.Delete(ctx, id)
	if err != nil {
		return storeError("delete payment", "", err)
	}
	if !ok {
		return notFound("payment", id)
	}

	if s.receipts != nil {
		if err := s.receipts.Discard(record.ReceiptID); err != nil {
			s.log.Warn("Failed to remove receipt file", map[string]interface{}{
				"receipt_id": record.ReceiptID,
				"error":      err.Error(),
			})
		}
	}

	s.log.Info("Payment deleted", map[string]interface{}{
		"payment_id": id.String(),
		"receipt_id": record.ReceiptID,
	})
	return nil
}

func (s *paymentService) GetPayment(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	record, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load payment", "", err)
	}
	if record == nil {
		return nil, notFound("payment", id)
	}
	return record, nil
}

func (s *paymentService) GetPaymentByReceiptID(ctx context.Context, receiptID string) (*models.PaymentRecord, error) {
	record, err := s.payments.GetByReceiptID(ctx, receiptID)
	if err != nil {
		return nil, storeError("load payment by receipt", "", err)
	}
	if record == nil {
		return nil, &NotFoundError{Resource: "payment", ID: receiptID}
	}
	return record, nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, invalid("from", "must not be after to")
	}
	if filter.Status != nil {
		if err := validateStatus(*filter.Status); err != nil {
			return nil, err
		}
	}
	if filter.Method != nil && !filter.Method.Valid() {
		return nil, validateMethod(*filter.Method)
	}

	records, err := s.payments.List(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list payments", err, nil)
		return nil, storeError("list payments", "", err)
	}

	s.log.Debug("Listed payments", map[string]interface{}{"count": len(records)})
	return records, nil
}

func (s *paymentService) FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, month string, year int) (*models.PaymentRecord, error) {
	period, err := models.NewBillingPeriod(month, year)
	if err != nil {
		return nil, invalid("month", err.Error())
	}
	record, err := s.payments.FindByTenantAndPeriod(ctx, tenantID, period.MonthName(), period.Year)
	if err != nil {
		return nil, storeError("find payment for period", "", err)
	}
	return record, nil
}

func (s *paymentService) RegenerateReceipt(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	record, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != models.PaymentStatusPaid {
		return nil, &ConflictError{Field: "status", Message: "receipts are issued for paid payments only"}
	}
	if s.receipts == nil {
		return nil, errors.New("receipt rendering is not configured")
	}

	if _, err := s.payments.UpdateReceipt(ctx, id, repository.ReceiptUpdate{Status: models.ReceiptStatusPending}); err != nil {
		return nil, storeError("mark receipt pending", "", err)
	}
	record.ReceiptStatus = models.ReceiptStatusPending

	s.log.Info("Re-rendering receipt", map[string]interface{}{
		"payment_id": id.String(),
		"receipt_id": record.ReceiptID,
	})
	return s.afterWrite(ctx, record)
}

func (s *paymentService) tenantForIdentity(ctx context.Context, email string) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, storeError("load tenant by email", "", err)
	}
	if tenant == nil {
		return nil, &NotFoundError{Resource: "tenant profile"}
	}
	return tenant, nil
}

func (s *paymentService) ListForIdentity(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	tenant, err := s.tenantForIdentity(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.ListPayments(ctx, models.PaymentFilter{TenantID: &tenant.ID})
}

func (s *paymentService) MonthlyDue(ctx context.Context, email string) (*MonthlyDue, error) {
	tenant, err := s.tenantForIdentity(ctx, email)
	if err != nil {
		return nil, err
	}

	period := models.PeriodOf(s.now().In(s.billing.location()))
	record, err := s.payments.FindByTenantAndPeriod(ctx, tenant.ID, period.MonthName(), period.Year)
	if err != nil {
		return nil, storeError("find monthly due", "", err)
	}
	if record == nil {
		return nil, &NotFoundError{Resource: "payment for " + period.String()}
	}

	due := &MonthlyDue{
		Payment: record,
		Tenant: TenantSummary{
			Name:            tenant.FullName(),
			ApartmentNumber: tenant.ApartmentNumber,
		},
	}

	propertyID := record.PropertyID
	if propertyID == nil {
		propertyID = tenant.PropertyID
	}
	if propertyID != nil {
		property, err := s.properties.GetByID(ctx, *propertyID)
		if err != nil {
			return nil, storeError("load property", "", err)
		}
		if property != nil {
			due.Tenant.PropertyName = property.PropertyName
			due.Tenant.OwnerName = property.OwnerName
		}
	}
	return due, nil
}
