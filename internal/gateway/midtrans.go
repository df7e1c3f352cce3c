package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

// ErrInvalidSignature is returned when a notification's signature does not match.
var ErrInvalidSignature = errors.New("invalid notification signature")

// orderSeparator joins a receipt id and a checkout attempt. Receipt ids never contain it.
const orderSeparator = "~"

// OrderID names one checkout attempt for a receipt. Midtrans refuses a reused order id,
// so every attempt carries its own suffix.
func OrderID(receiptID, attempt string) string {
	return receiptID + orderSeparator + attempt
}

// ReceiptIDOf returns the receipt id an order id was built from.
func ReceiptIDOf(orderID string) string {
	receiptID, _, _ := strings.Cut(orderID, orderSeparator)
	return receiptID
}

// CheckoutRequest describes one record to be paid through the hosted checkout.
// OrderID comes from OrderID.
type CheckoutRequest struct {
	OrderID   string
	ItemName  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Amount    decimal.Decimal
}

// Checkout is the hosted payment page created for a record.
type Checkout struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}

// Notification is the HTTP notification body posted by Midtrans.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id" binding:"required"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// Settled reports whether the notification confirms that money was received.
// Card captures count only when the fraud check accepted them.
func (n Notification) Settled() bool {
	switch n.TransactionStatus {
	case "settlement":
		return true
	case "capture":
		return n.FraudStatus == "" || n.FraudStatus == "accept"
	}
	return false
}

// Amount parses the gross amount of the notification.
func (n Notification) Amount() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(n.GrossAmount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid gross_amount %q: %w", n.GrossAmount, err)
	}
	return amount, nil
}

// Signature returns hex(SHA512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// Midtrans creates Snap checkouts and verifies payment notifications.
type Midtrans struct {
	client    snap.Client
	serverKey string
}

// NewMidtrans creates a Snap client for the sandbox or production environment.
func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	m := &Midtrans{serverKey: serverKey}
	m.client.New(serverKey, env)
	return m
}

// CreateCheckout opens a Snap transaction for the request.
func (m *Midtrans) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("checkout amount must be positive, got %s", req.Amount)
	}

	gross := req.Amount.Round(0).IntPart()
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.OrderID,
				Price: gross,
				Qty:   1,
				Name:  truncate(req.ItemName, 50),
			},
		},
	}

	resp, mErr := m.client.CreateTransaction(snapReq)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans create transaction: %w", mErr)
	}
	return &Checkout{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// VerifySignature checks the notification against the server key.
func (m *Midtrans) VerifySignature(n Notification) error {
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, m.serverKey)
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
