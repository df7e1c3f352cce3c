package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/gateway"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
)

// CheckoutProvider is the hosted payment gateway.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error)
	VerifySignature(n gateway.Notification) error
}

// NotificationOutcome tells the gateway what happened to its notification.
type NotificationOutcome struct {
	Payment *models.PaymentRecord `json:"payment,omitempty"`
	Status  string                `json:"status"`
	Reason  string                `json:"reason,omitempty"`
}

// GatewayService connects ledger records to the payment gateway.
type GatewayService interface {
	// Checkout opens a hosted payment for one of the caller's unpaid records.
	Checkout(ctx context.Context, identity auth.Identity, paymentID uuid.UUID) (*gateway.Checkout, error)
	// HandleNotification settles the record named by a verified notification. A bad
	// signature is a *ValidationError on signature_key.
	// Unknown orders and non-settling statuses are acknowledged and ignored.
	HandleNotification(ctx context.Context, n gateway.Notification) (*NotificationOutcome, error)
}

type gatewayService struct {
	provider CheckoutProvider
	payments PaymentService
	ledger   repository.PaymentRepository
	tenants  repository.TenantRepository
	log      *logger.Logger
}

// NewGatewayService creates a GatewayService. A nil provider disables the gateway and
// every call returns ErrGatewayDisabled.
func NewGatewayService(
	provider CheckoutProvider,
	payments PaymentService,
	ledger repository.PaymentRepository,
	tenants repository.TenantRepository,
	log *logger.Logger,
) GatewayService {
	return &gatewayService{
		provider: provider,
		payments: payments,
		ledger:   ledger,
		tenants:  tenants,
		log:      log,
	}
}

func (s *gatewayService) Checkout(ctx context.Context, identity auth.Identity, id uuid.UUID) (*gateway.Checkout, error) {
	if s.provider == nil {
		return nil, ErrGatewayDisabled
	}

	record, err := s.payments.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.GetByID(ctx, record.TenantID)
	if err != nil {
		return nil, storeError("load tenant", "", err)
	}
	// Someone else's record is reported as missing.
	if tenant == nil || auth.NormalizeEmail(tenant.Email) != auth.NormalizeEmail(identity.Email) {
		return nil, notFound("payment", id)
	}
	if record.Status == models.PaymentStatusPaid {
		return nil, &ConflictError{Field: "status", Message: "payment is already paid"}
	}

	orderID := gateway.OrderID(record.ReceiptID, uuid.NewString()[:8])
	checkout, err := s.provider.CreateCheckout(ctx, gateway.CheckoutRequest{
		OrderID:   orderID,
		ItemName:  fmt.Sprintf("Rent %s %d", record.BillingMonth, record.BillingYear),
		FirstName: tenant.FirstName,
		LastName:  tenant.LastName,
		Email:     tenant.Email,
		Phone:     tenant.Phone,
		Amount:    record.Outstanding(),
	})
	if err != nil {
		s.log.Error("Failed to create gateway checkout", err, map[string]interface{}{
			"payment_id": id.String(),
		})
		return nil, err
	}

	s.log.Info("Gateway checkout created", map[string]interface{}{
		"payment_id": id.String(),
		"order_id":   orderID,
	})
	return checkout, nil
}

func (s *gatewayService) HandleNotification(ctx context.Context, n gateway.Notification) (*NotificationOutcome, error) {
	if s.provider == nil {
		return nil, ErrGatewayDisabled
	}
	if err := s.provider.VerifySignature(n); err != nil {
		s.log.Warn("Rejected gateway notification", map[string]interface{}{
			"order_id": n.OrderID,
		})
		return nil, invalid("signature_key", "does not match the notification")
	}

	record, err := s.ledger.GetByReceiptID(ctx, gateway.ReceiptIDOf(n.OrderID))
	if err != nil {
		return nil, storeError("load payment by order", "", err)
	}
	if record == nil {
		s.log.Warn("Gateway notification for unknown order", map[string]interface{}{
			"order_id": n.OrderID,
		})
		return &NotificationOutcome{Status: "ignored", Reason: "payment not found"}, nil
	}
	if !n.Settled() {
		s.log.Info("Gateway notification without settlement", map[string]interface{}{
			"order_id":           n.OrderID,
			"transaction_status": n.TransactionStatus,
		})
		return &NotificationOutcome{Status: "ignored", Reason: "transaction status " + n.TransactionStatus, Payment: record}, nil
	}
	if record.Status == models.PaymentStatusPaid {
		// Gateways retry notifications.
		return &NotificationOutcome{Status: "ok", Payment: record}, nil
	}

	amount, err := n.Amount()
	if err != nil {
		return nil, invalid("gross_amount", err.Error())
	}
	settlement := Settlement{Method: models.PaymentMethodGateway, Amount: amount}
	if n.TransactionID != "" {
		ref := n.TransactionID
		settlement.Reference = &ref
	}

	settled, err := s.payments.SettlePayment(ctx, record.ID, settlement)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return &NotificationOutcome{Status: "ignored", Reason: conflict.Message, Payment: record}, nil
		}
		return nil, err
	}
	return &NotificationOutcome{Status: "ok", Payment: settled}, nil
}
