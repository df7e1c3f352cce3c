package services

import (
	"context"
	"testing"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOverdueSweep(t *testing.T) {
	f := newFixture(t)
	f.addTenant(t, "Jane", "Doe", "A101", 15000)
	f.addTenant(t, "John", "Roe", "A102", 12000)
	feb, err := f.dues.GenerateMonthlyDues(context.Background(), "February", 2024)
	require.NoError(t, err)
	_, err = f.dues.GenerateMonthlyDues(context.Background(), "March", 2024)
	require.NoError(t, err)

	// John pays February before the sweep.
	for _, due := range feb.Created {
		if due.ApartmentNumber == "A102" {
			_, err = f.payments.SettlePayment(context.Background(), due.PaymentID, Settlement{Method: models.PaymentMethodCash})
			require.NoError(t, err)
		}
	}

	sweeper := NewOverdueSweeper(f.store.Payments, DefaultBillingPolicy(), logger.Nop())
	result, err := sweeper.Sweep(context.Background(), time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 1, result.MarkedOverdue)
	require.Len(t, result.PaymentIDs, 1)

	overdue := models.PaymentStatusOverdue
	records, err := f.payments.ListPayments(context.Background(), models.PaymentFilter{Status: &overdue})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "February", records[0].BillingMonth)
	assert.Equal(t, result.PaymentIDs[0], records[0].ID)

	// After the March due date both March dues are late.
	again, err := sweeper.Sweep(context.Background(), march10)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Checked)
	assert.Equal(t, 2, again.MarkedOverdue)

	last, err := sweeper.Sweep(context.Background(), march10)
	require.NoError(t, err)
	assert.Zero(t, last.Checked)
	assert.Zero(t, last.MarkedOverdue)
}

func TestOverdueSweep_GracePeriod(t *testing.T) {
	f := newFixture(t)
	f.addTenant(t, "Jane", "Doe", "A101", 15000)
	_, err := f.dues.GenerateMonthlyDues(context.Background(), "March", 2024)
	require.NoError(t, err)

	sweeper := NewOverdueSweeper(f.store.Payments, BillingPolicy{DueDay: 5, GraceDays: 7}, logger.Nop())

	result, err := sweeper.Sweep(context.Background(), march10)
	require.NoError(t, err)
	assert.Zero(t, result.MarkedOverdue)

	result, err = sweeper.Sweep(context.Background(), time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.MarkedOverdue)
}

func TestOverdueSweep_StorageError(t *testing.T) {
	payments := new(MockPaymentRepository)
	payments.On("List", mock.Anything, mock.Anything).Return(nil, repository.ErrStorageUnavailable)

	sweeper := NewOverdueSweeper(payments, DefaultBillingPolicy(), logger.Nop())
	_, err := sweeper.Sweep(context.Background(), march10)

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	payments.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// listHookRepository runs afterList once, between a List call and its return.
type listHookRepository struct {
	repository.PaymentRepository
	afterList func()
}

func (r *listHookRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	records, err := r.PaymentRepository.List(ctx, filter)
	if hook := r.afterList; hook != nil {
		r.afterList = nil
		hook()
	}
	return records, err
}

func TestOverdueSweep_KeepsSettlementMadeDuringSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTenant(t, "Jane", "Doe", "A101", 15000)
	feb, err := f.dues.GenerateMonthlyDues(ctx, "February", 2024)
	require.NoError(t, err)
	id := feb.Created[0].PaymentID

	repo := &listHookRepository{
		PaymentRepository: f.store.Payments,
		afterList: func() {
			_, err := f.payments.SettlePayment(ctx, id, Settlement{Method: models.PaymentMethodBankTransfer})
			require.NoError(t, err)
		},
	}
	sweeper := NewOverdueSweeper(repo, DefaultBillingPolicy(), logger.Nop())

	result, err := sweeper.Sweep(ctx, march10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Zero(t, result.MarkedOverdue)
	assert.Empty(t, result.PaymentIDs)

	record, err := f.payments.GetPayment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, record.Status)
	assert.True(t, record.AmountPaid.Equal(dec(15000)))
	assert.Equal(t, models.PaymentMethodBankTransfer, record.PaymentMethod)
	assert.Equal(t, models.ReceiptStatusReady, record.ReceiptStatus)
}
