package services

import (
	"context"
	"testing"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/gateway"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

// fakeProvider records checkout requests and verifies signatures with testServerKey.
type fakeProvider struct {
	requests []gateway.CheckoutRequest
}

func (p *fakeProvider) CreateCheckout(_ context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	p.requests = append(p.requests, req)
	return &gateway.Checkout{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
}

func (p *fakeProvider) VerifySignature(n gateway.Notification) error {
	if n.SignatureKey != gateway.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey) {
		return gateway.ErrInvalidSignature
	}
	return nil
}

func signed(n gateway.Notification) gateway.Notification {
	n.SignatureKey = gateway.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

type gatewayFixture struct {
	*fixture
	provider *fakeProvider
	svc      GatewayService
	jane     *models.Tenant
	due      *models.PaymentRecord
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	f := newFixture(t)
	jane := f.addTenant(t, "Jane", "Doe", "A101", 15000)
	gen, err := f.dues.GenerateMonthlyDues(context.Background(), "March", 2024)
	require.NoError(t, err)
	due, err := f.payments.GetPayment(context.Background(), gen.Created[0].PaymentID)
	require.NoError(t, err)

	provider := &fakeProvider{}
	return &gatewayFixture{
		fixture:  f,
		provider: provider,
		svc:      NewGatewayService(provider, f.payments, f.store.Payments, f.store.Tenants, logger.Nop()),
		jane:     jane,
		due:      due,
	}
}

func TestGatewayCheckout(t *testing.T) {
	f := newGatewayFixture(t)
	janeIdentity := auth.Identity{UserID: uuid.New(), Email: f.jane.Email, Role: models.RoleUser}

	checkout, err := f.svc.Checkout(context.Background(), janeIdentity, f.due.ID)
	require.NoError(t, err)
	assert.Equal(t, "snap-token", checkout.Token)
	require.Len(t, f.provider.requests, 1)
	req := f.provider.requests[0]
	assert.Equal(t, f.due.ReceiptID, gateway.ReceiptIDOf(req.OrderID))
	assert.True(t, req.Amount.Equal(dec(15000)))
	assert.Equal(t, "Rent March 2024", req.ItemName)

	t.Run("identity email in another case", func(t *testing.T) {
		shouted := auth.Identity{UserID: uuid.New(), Email: "a101@EXAMPLE.com", Role: models.RoleUser}
		_, err := f.svc.Checkout(context.Background(), shouted, f.due.ID)
		require.NoError(t, err)
	})

	t.Run("someone else's record", func(t *testing.T) {
		other := auth.Identity{UserID: uuid.New(), Email: "john@example.com", Role: models.RoleUser}
		_, err := f.svc.Checkout(context.Background(), other, f.due.ID)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
	})

	t.Run("already paid", func(t *testing.T) {
		_, err := f.payments.SettlePayment(context.Background(), f.due.ID, Settlement{Method: models.PaymentMethodCash})
		require.NoError(t, err)
		_, err = f.svc.Checkout(context.Background(), janeIdentity, f.due.ID)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	})
}

func TestGatewayNotification_Settles(t *testing.T) {
	f := newGatewayFixture(t)
	n := signed(gateway.Notification{
		OrderID:           f.due.ReceiptID,
		StatusCode:        "200",
		GrossAmount:       "15000.00",
		TransactionStatus: "settlement",
		TransactionID:     "txn-123",
		TransactionTime:   "2024-03-08 10:00:00",
	})

	outcome, err := f.svc.HandleNotification(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "ok", outcome.Status)
	assert.Equal(t, models.PaymentStatusPaid, outcome.Payment.Status)
	assert.Equal(t, models.PaymentMethodGateway, outcome.Payment.PaymentMethod)
	require.NotNil(t, outcome.Payment.GatewayReference)
	assert.Equal(t, "txn-123", *outcome.Payment.GatewayReference)
	assert.Equal(t, models.ReceiptStatusReady, outcome.Payment.ReceiptStatus)

	// Retried notifications are acknowledged without a second receipt.
	again, err := f.svc.HandleNotification(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "ok", again.Status)
	assert.Equal(t, 1, f.emitter.emitCount())
}

func TestGatewayNotification_PartialAmount(t *testing.T) {
	f := newGatewayFixture(t)

	outcome, err := f.svc.HandleNotification(context.Background(), signed(gateway.Notification{
		OrderID:           f.due.ReceiptID,
		StatusCode:        "200",
		GrossAmount:       "5000.00",
		TransactionStatus: "capture",
		FraudStatus:       "accept",
	}))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPartial, outcome.Payment.Status)
	assert.True(t, outcome.Payment.AmountPaid.Equal(dec(5000)))
	assert.Nil(t, outcome.Payment.GatewayReference)
}

func TestGatewayNotification_Ignored(t *testing.T) {
	f := newGatewayFixture(t)

	tests := []struct {
		name string
		n    gateway.Notification
	}{
		{"unknown order", gateway.Notification{OrderID: "RENT-0-000000", StatusCode: "200", GrossAmount: "15000.00", TransactionStatus: "settlement"}},
		{"pending transaction", gateway.Notification{OrderID: f.due.ReceiptID, StatusCode: "201", GrossAmount: "15000.00", TransactionStatus: "pending"}},
		{"challenged capture", gateway.Notification{OrderID: f.due.ReceiptID, StatusCode: "200", GrossAmount: "15000.00", TransactionStatus: "capture", FraudStatus: "challenge"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := f.svc.HandleNotification(context.Background(), signed(tt.n))
			require.NoError(t, err)
			assert.Equal(t, "ignored", outcome.Status)
			assert.NotEmpty(t, outcome.Reason)
		})
	}

	record, err := f.payments.GetPayment(context.Background(), f.due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, record.Status)
}

func TestGatewayNotification_BadSignature(t *testing.T) {
	f := newGatewayFixture(t)
	n := signed(gateway.Notification{OrderID: f.due.ReceiptID, StatusCode: "200", GrossAmount: "15000.00", TransactionStatus: "settlement"})
	n.GrossAmount = "1.00"

	_, err := f.svc.HandleNotification(context.Background(), n)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "signature_key", verr.Field)

	record, err := f.payments.GetPayment(context.Background(), f.due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, record.Status)
}

func TestGatewayDisabled(t *testing.T) {
	f := newFixture(t)
	svc := NewGatewayService(nil, f.payments, f.store.Payments, f.store.Tenants, logger.Nop())

	_, err := svc.Checkout(context.Background(), auth.Identity{UserID: uuid.New(), Email: "a@example.com"}, uuid.New())
	assert.ErrorIs(t, err, ErrGatewayDisabled)

	_, err = svc.HandleNotification(context.Background(), gateway.Notification{OrderID: "x"})
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}

func TestGatewayNotification_UsesServiceClock(t *testing.T) {
	f := newGatewayFixture(t)

	outcome, err := f.svc.HandleNotification(context.Background(), signed(gateway.Notification{
		OrderID:           f.due.ReceiptID,
		StatusCode:        "200",
		GrossAmount:       "15000",
		TransactionStatus: "settlement",
	}))
	require.NoError(t, err)
	assert.True(t, march10.Equal(outcome.Payment.PaymentDate))
}

func TestGatewayCheckout_RepeatForPartialRecord(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()
	janeIdentity := auth.Identity{UserID: uuid.New(), Email: f.jane.Email, Role: models.RoleUser}

	_, err := f.payments.SettlePayment(ctx, f.due.ID, Settlement{Method: models.PaymentMethodCash, Amount: dec(5000)})
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, janeIdentity, f.due.ID)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, janeIdentity, f.due.ID)
	require.NoError(t, err)

	require.Len(t, f.provider.requests, 2)
	first, second := f.provider.requests[0], f.provider.requests[1]
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.True(t, second.Amount.Equal(dec(10000)))

	outcome, err := f.svc.HandleNotification(ctx, signed(gateway.Notification{
		OrderID:           second.OrderID,
		StatusCode:        "200",
		GrossAmount:       "10000.00",
		TransactionStatus: "settlement",
	}))
	require.NoError(t, err)
	assert.Equal(t, "ok", outcome.Status)
	assert.Equal(t, models.PaymentStatusPaid, outcome.Payment.Status)
	assert.True(t, outcome.Payment.AmountPaid.Equal(dec(15000)))
}
