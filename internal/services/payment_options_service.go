package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/go-playground/validator/v10"
)

// PaymentOptionsInput replaces the payment instructions.
type PaymentOptionsInput struct {
	UPIID       string             `json:"upiId" validate:"max=100"`
	BankDetails models.BankDetails `json:"bankDetails"`
}

// PaymentOptionsService serves the payment instructions shown to tenants.
type PaymentOptionsService interface {
	Get(ctx context.Context) (*models.PaymentOptions, error)
	Update(ctx context.Context, input PaymentOptionsInput) (*models.PaymentOptions, error)
}

type paymentOptionsService struct {
	repo      repository.SettingsRepository
	defaults  models.PaymentOptions
	qrBaseURL string
	validate  *validator.Validate
	log       *logger.Logger
}

// NewPaymentOptionsService creates a PaymentOptionsService. defaults are served until an
// admin saves options; qrBaseURL is prefixed to the UPI payment URI to build QR links.
func NewPaymentOptionsService(repo repository.SettingsRepository, defaults models.PaymentOptions, qrBaseURL string, log *logger.Logger) PaymentOptionsService {
	s := &paymentOptionsService{
		repo:      repo,
		qrBaseURL: qrBaseURL,
		validate:  newValidator(),
		log:       log,
	}
	defaults.QRCode = s.qrCode(defaults.UPIID)
	s.defaults = defaults
	return s
}

// qrCode returns a link to a QR image encoding upi://pay?pa=<upiID>.
func (s *paymentOptionsService) qrCode(upiID string) string {
	if upiID == "" || s.qrBaseURL == "" {
		return ""
	}
	uri := "upi://pay?pa=" + url.QueryEscape(upiID)
	return s.qrBaseURL + url.QueryEscape(uri)
}

func (s *paymentOptionsService) Get(ctx context.Context) (*models.PaymentOptions, error) {
	saved, err := s.repo.GetPaymentOptions(ctx)
	if err != nil {
		return nil, storeError("load payment options", "", err)
	}
	if saved == nil {
		options := s.defaults
		return &options, nil
	}
	return saved, nil
}

func (s *paymentOptionsService) Update(ctx context.Context, input PaymentOptionsInput) (*models.PaymentOptions, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	upiID := strings.TrimSpace(input.UPIID)
	if upiID != "" && !strings.Contains(upiID, "@") {
		return nil, invalid("upiId", "must look like name@bank")
	}

	options := models.PaymentOptions{
		UPIID:       upiID,
		QRCode:      s.qrCode(upiID),
		BankDetails: input.BankDetails,
	}
	if err := s.repo.SavePaymentOptions(ctx, options); err != nil {
		return nil, storeError("save payment options", "", err)
	}

	s.log.Info("Payment options updated", map[string]interface{}{"upi_configured": upiID != ""})
	return &options, nil
}
