// Package receipts renders payment receipts as PDF files and serves them by receipt id.
package receipts

import (
	"strconv"
	"strings"
	"time"

	"github.com/Omyelshetty/RentApp/internal/models"
)

// Content is everything printed on a receipt.
type Content struct {
	IssuedAt        time.Time
	ReceiptID       string
	TenantName      string
	TenantEmail     string
	TenantPhone     string
	ApartmentNumber string
	PropertyName    string
	PropertyAddress string
	OwnerName       string
	Amount          string
	AmountPaid      string
	PaymentMethod   string
	BillingPeriod   string
	Description     string
	Status          string
}

// Line is one labelled row of a receipt.
type Line struct {
	Label string
	Value string
}

var methodLabels = map[models.PaymentMethod]string{
	models.PaymentMethodCash:         "Cash",
	models.PaymentMethodCard:         "Card",
	models.PaymentMethodBankTransfer: "Bank Transfer",
	models.PaymentMethodCheck:        "Check",
	models.PaymentMethodPending:      "Pending",
	models.PaymentMethodGateway:      "Online (Gateway)",
	models.PaymentMethodUPI:          "UPI",
}

// MethodLabel returns the printable name of a payment method.
func MethodLabel(m models.PaymentMethod) string {
	if label, ok := methodLabels[m]; ok {
		return label
	}
	return string(m)
}

// BuildContent joins a record with its tenant and property. property may be nil.
func BuildContent(record models.PaymentRecord, tenant models.Tenant, property *models.Property) Content {
	c := Content{
		IssuedAt:        record.PaymentDate,
		ReceiptID:       record.ReceiptID,
		TenantName:      tenant.FullName(),
		TenantEmail:     tenant.Email,
		TenantPhone:     tenant.Phone,
		ApartmentNumber: tenant.ApartmentNumber,
		Amount:          models.FormatINR(record.Amount),
		AmountPaid:      models.FormatINR(record.Collected()),
		PaymentMethod:   MethodLabel(record.PaymentMethod),
		BillingPeriod:   billingPeriod(record),
		Description:     record.Description,
		Status:          strings.ToUpper(string(record.Status)),
	}
	if property != nil {
		c.PropertyName = property.PropertyName
		c.PropertyAddress = property.Address
		c.OwnerName = property.OwnerName
	}
	return c
}

func billingPeriod(record models.PaymentRecord) string {
	if period, err := record.Period(); err == nil {
		return period.String()
	}
	return strings.TrimSpace(record.BillingMonth + " " + strconv.Itoa(record.BillingYear))
}

// Lines returns the receipt rows in print order. Empty optional rows are omitted.
func (c Content) Lines() []Line {
	lines := []Line{
		{"Receipt No.", c.ReceiptID},
		{"Date", c.IssuedAt.Format("02 Jan 2006")},
		{"Tenant", c.TenantName},
		{"Apartment", c.ApartmentNumber},
		{"Email", c.TenantEmail},
		{"Phone", c.TenantPhone},
		{"Property", c.PropertyName},
		{"Address", c.PropertyAddress},
		{"Owner", c.OwnerName},
		{"Billing Period", c.BillingPeriod},
		{"Amount", c.Amount},
		{"Amount Paid", c.AmountPaid},
		{"Payment Method", c.PaymentMethod},
		{"Status", c.Status},
		{"Description", c.Description},
	}
	out := lines[:0]
	for _, l := range lines {
		if l.Value != "" {
			out = append(out, l)
		}
	}
	return out
}
