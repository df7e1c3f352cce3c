package handlers

import (
	"net/http"
	"strings"
	"time"

	apierrors "github.com/Omyelshetty/RentApp/internal/errors"
	"github.com/Omyelshetty/RentApp/internal/gateway"
	"github.com/Omyelshetty/RentApp/internal/middleware"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles the payment ledger endpoints.
type PaymentHandler struct {
	payments services.PaymentService
	dues     services.DueGenerator
	sweeper  services.OverdueSweeper
	options  services.PaymentOptionsService
	gateway  services.GatewayService
	now      func() time.Time
}

// NewPaymentHandler creates a new PaymentHandler instance.
func NewPaymentHandler(
	payments services.PaymentService,
	dues services.DueGenerator,
	sweeper services.OverdueSweeper,
	options services.PaymentOptionsService,
	gatewayService services.GatewayService,
) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		dues:     dues,
		sweeper:  sweeper,
		options:  options,
		gateway:  gatewayService,
		now:      time.Now,
	}
}

// CreatePaymentRequest is the body of POST /payments.
type CreatePaymentRequest struct {
	PropertyID    *uuid.UUID           `json:"propertyId"`
	AmountPaid    *decimal.Decimal     `json:"amountPaid"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required"`
	PaymentDate   string               `json:"paymentDate" binding:"required"`
	Status        models.PaymentStatus `json:"status"`
	Description   string               `json:"description" binding:"max=500"`
	Month         string               `json:"month"`
	Amount        decimal.Decimal      `json:"amount"`
	Year          int                  `json:"year"`
	TenantID      uuid.UUID            `json:"tenantId" binding:"required"`
}

// UpdatePaymentRequest is the body of PATCH /payments/:id.
type UpdatePaymentRequest struct {
	Amount        *decimal.Decimal      `json:"amount"`
	AmountPaid    *decimal.Decimal      `json:"amountPaid"`
	PaymentMethod *models.PaymentMethod `json:"paymentMethod"`
	PaymentDate   *string               `json:"paymentDate"`
	Status        *models.PaymentStatus `json:"status"`
	Description   *string               `json:"description" binding:"omitempty,max=500"`
	Month         *string               `json:"month"`
	Year          *int                  `json:"year"`
}

// SettleRequest is the body of POST /payments/:id/settle. A zero amount settles the
// outstanding balance.
type SettleRequest struct {
	Reference     *string              `json:"reference"`
	Description   *string              `json:"description" binding:"omitempty,max=500"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required"`
	PaidAt        string               `json:"paidAt"`
	Amount        decimal.Decimal      `json:"amount"`
}

// GenerateDuesRequest names the billing period. Both fields default to the current period.
type GenerateDuesRequest struct {
	Month string `json:"month" form:"month"`
	Year  int    `json:"year" form:"year"`
}

// PaymentListResponse wraps a list of payments.
type PaymentListResponse struct {
	Payments []models.PaymentRecord `json:"payments"`
	Count    int                    `json:"count"`
}

func paymentList(records []models.PaymentRecord) PaymentListResponse {
	if records == nil {
		records = []models.PaymentRecord{}
	}
	return PaymentListResponse{Payments: records, Count: len(records)}
}

// Create handles POST /api/v1/payments.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}
	paymentDate, ok := optionalTime(c, "paymentDate", req.PaymentDate)
	if !ok {
		return
	}

	record, err := h.payments.CreatePayment(c.Request.Context(), services.CreatePaymentInput{
		TenantID:      req.TenantID,
		PropertyID:    req.PropertyID,
		Amount:        req.Amount,
		AmountPaid:    req.AmountPaid,
		PaymentMethod: req.PaymentMethod,
		PaymentDate:   paymentDate,
		Status:        req.Status,
		Description:   req.Description,
		BillingMonth:  req.Month,
		BillingYear:   req.Year,
	})
	if err != nil {
		apierrors.FromService(c, err, "Failed to record payment")
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Update handles PATCH /api/v1/payments/:id.
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	patch := services.PaymentPatch{
		Amount:        req.Amount,
		AmountPaid:    req.AmountPaid,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
		Description:   req.Description,
		BillingMonth:  req.Month,
		BillingYear:   req.Year,
	}
	if req.PaymentDate != nil {
		date, err := parseTime(*req.PaymentDate)
		if err != nil {
			apierrors.FieldError(c, "paymentDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return
		}
		patch.PaymentDate = &date
	}

	record, err := h.payments.UpdatePayment(c.Request.Context(), id, patch)
	if err != nil {
		apierrors.FromService(c, err, "Failed to update payment")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /api/v1/payments/:id.
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.payments.DeletePayment(c.Request.Context(), id); err != nil {
		apierrors.FromService(c, err, "Failed to delete payment")
		return
	}
	c.Status(http.StatusNoContent)
}

// Get handles GET /api/v1/payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	record, err := h.payments.GetPayment(c.Request.Context(), id)
	if err != nil {
		apierrors.FromService(c, err, "Failed to load payment")
		return
	}
	c.JSON(http.StatusOK, record)
}

// List handles GET /api/v1/payments?tenantId&from&to&status&method.
func (h *PaymentHandler) List(c *gin.Context) {
	filter, ok := paymentFilter(c)
	if !ok {
		return
	}
	records, err := h.payments.ListPayments(c.Request.Context(), filter)
	if err != nil {
		apierrors.FromService(c, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, paymentList(records))
}

// paymentFilter reads the shared ledger query parameters.
func paymentFilter(c *gin.Context) (models.PaymentFilter, bool) {
	var filter models.PaymentFilter
	var ok bool

	if filter.TenantID, ok = optionalUUID(c, "tenantId", c.Query("tenantId")); !ok {
		return filter, false
	}
	if filter.From, ok = optionalTime(c, "from", c.Query("from")); !ok {
		return filter, false
	}
	rawTo := c.Query("to")
	if filter.To, ok = optionalTime(c, "to", rawTo); !ok {
		return filter, false
	}
	filter.To = endOfDay(rawTo, filter.To)
	if status := c.Query("status"); status != "" {
		s := models.PaymentStatus(status)
		filter.Status = &s
	}
	if method := c.Query("method"); method != "" {
		m := models.PaymentMethod(method)
		filter.Method = &m
	}
	return filter, true
}

// Settle handles POST /api/v1/payments/:id/settle.
func (h *PaymentHandler) Settle(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}
	paidAt, ok := optionalTime(c, "paidAt", req.PaidAt)
	if !ok {
		return
	}

	settlement := services.Settlement{
		Method:      req.PaymentMethod,
		Amount:      req.Amount,
		Reference:   req.Reference,
		Description: req.Description,
	}
	if paidAt != nil {
		settlement.PaidAt = *paidAt
	}

	record, err := h.payments.SettlePayment(c.Request.Context(), id, settlement)
	if err != nil {
		apierrors.FromService(c, err, "Failed to settle payment")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Receipt handles POST /api/v1/payments/:id/receipt, re-rendering the receipt document.
func (h *PaymentHandler) Receipt(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	record, err := h.payments.RegenerateReceipt(c.Request.Context(), id)
	if err != nil {
		apierrors.FromService(c, err, "Failed to render receipt")
		return
	}
	status := http.StatusOK
	if record.ReceiptStatus == models.ReceiptStatusPending {
		status = http.StatusAccepted
	}
	c.JSON(status, record)
}

// GenerateMonthlyDues handles POST /api/v1/payments/generate-monthly-dues.
func (h *PaymentHandler) GenerateMonthlyDues(c *gin.Context) {
	var req GenerateDuesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BindError(c, err)
			return
		}
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Generating monthly dues", map[string]interface{}{
			"month": req.Month,
			"year":  req.Year,
		})
	}

	result, err := h.dues.GenerateMonthlyDues(c.Request.Context(), strings.TrimSpace(req.Month), req.Year)
	if err != nil {
		apierrors.FromService(c, err, "Failed to generate monthly dues")
		return
	}
	c.JSON(http.StatusOK, result)
}

// SweepOverdue handles POST /api/v1/payments/sweep-overdue.
func (h *PaymentHandler) SweepOverdue(c *gin.Context) {
	result, err := h.sweeper.Sweep(c.Request.Context(), h.now())
	if err != nil {
		apierrors.FromService(c, err, "Failed to mark overdue payments")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Mine handles GET /api/v1/payments/me.
func (h *PaymentHandler) Mine(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	records, err := h.payments.ListForIdentity(c.Request.Context(), identity.Email)
	if err != nil {
		apierrors.FromService(c, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, paymentList(records))
}

// MonthlyDue handles GET /api/v1/payments/monthly-due.
func (h *PaymentHandler) MonthlyDue(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	due, err := h.payments.MonthlyDue(c.Request.Context(), identity.Email)
	if err != nil {
		apierrors.FromService(c, err, "Failed to load monthly due")
		return
	}
	c.JSON(http.StatusOK, due)
}

// PaymentOptions handles GET /api/v1/payments/payment-options.
func (h *PaymentHandler) PaymentOptions(c *gin.Context) {
	options, err := h.options.Get(c.Request.Context())
	if err != nil {
		apierrors.FromService(c, err, "Failed to load payment options")
		return
	}
	c.JSON(http.StatusOK, options)
}

// Checkout handles POST /api/v1/payments/:id/checkout for the caller's own record.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	identity, _ := middleware.GetIdentity(c)
	checkout, err := h.gateway.Checkout(c.Request.Context(), identity, id)
	if err != nil {
		apierrors.FromService(c, err, "Failed to start online payment")
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

// GatewayNotification handles POST /api/v1/payments/gateway/notification.
func (h *PaymentHandler) GatewayNotification(c *gin.Context) {
	var n gateway.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		apierrors.BindError(c, err)
		return
	}
	outcome, err := h.gateway.HandleNotification(c.Request.Context(), n)
	if err != nil {
		apierrors.FromService(c, err, "Failed to process notification")
		return
	}
	c.JSON(http.StatusOK, outcome)
}
