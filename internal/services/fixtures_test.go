package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// march10 is the fixed clock used by workflow tests.
var march10 = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

// fakeEmitter marks receipts ready (or failed when err is set) without rendering.
type fakeEmitter struct {
	mu        sync.Mutex
	payments  repository.PaymentRepository
	err       error
	emitted   []uuid.UUID
	discarded []string
}

func (e *fakeEmitter) Emit(ctx context.Context, paymentID uuid.UUID) error {
	e.mu.Lock()
	e.emitted = append(e.emitted, paymentID)
	e.mu.Unlock()

	if e.err != nil {
		msg := e.err.Error()
		_, _ = e.payments.UpdateReceipt(ctx, paymentID, repository.ReceiptUpdate{Status: models.ReceiptStatusFailed, Error: &msg})
		return e.err
	}
	record, err := e.payments.GetByID(ctx, paymentID)
	if err != nil || record == nil {
		return err
	}
	url := "http://localhost:5000/receipts/" + record.ReceiptID + ".pdf"
	_, err = e.payments.UpdateReceipt(ctx, paymentID, repository.ReceiptUpdate{Status: models.ReceiptStatusReady, URL: &url})
	return err
}

func (e *fakeEmitter) Discard(receiptID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discarded = append(e.discarded, receiptID)
	return nil
}

func (e *fakeEmitter) emitCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.emitted)
}

type fixture struct {
	store    *repository.Store
	emitter  *fakeEmitter
	payments PaymentService
	dues     DueGenerator
	tenants  TenantService
	reports  ReportService
	property *models.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore().Store()
	emitter := &fakeEmitter{payments: store.Payments}
	log := logger.Nop()
	clock := fixedClock(march10)

	property := &models.Property{
		ID:           uuid.New(),
		PropertyName: "Green View Apartments",
		OwnerName:    "Ravi Kumar",
		Address:      "12 MG Road, Pune",
		TotalUnits:   12,
		Status:       models.PropertyStatusActive,
	}
	require.NoError(t, store.Properties.Create(context.Background(), property))

	return &fixture{
		store:    store,
		emitter:  emitter,
		payments: NewPaymentService(store.Payments, store.Tenants, store.Properties, emitter, log, clock),
		dues:     NewDueGenerator(store.Payments, store.Tenants, DefaultBillingPolicy(), log, clock),
		tenants:  NewTenantService(store.Tenants, store.Properties, store.Payments, store.Users, emitter, log),
		reports:  NewReportService(store.Payments, store.Tenants, store.Properties, log, clock),
		property: property,
	}
}

// addTenant stores an active tenant of the fixture property.
func (f *fixture) addTenant(t *testing.T, first, last, apartment string, rent int64) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{
		ID:              uuid.New(),
		PropertyID:      &f.property.ID,
		FirstName:       first,
		LastName:        last,
		Email:           apartment + "@example.com",
		ApartmentNumber: apartment,
		Status:          models.TenantStatusActive,
		RentAmount:      decimal.NewFromInt(rent),
	}
	require.NoError(t, f.store.Tenants.Create(context.Background(), tenant))
	return tenant
}

func (f *fixture) allPayments(t *testing.T) []models.PaymentRecord {
	t.Helper()
	records, err := f.store.Payments.List(context.Background(), models.PaymentFilter{})
	require.NoError(t, err)
	return records
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func ptr[T any](v T) *T {
	return &v
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}
