package handlers

import (
	"net/http"

	apierrors "github.com/Omyelshetty/RentApp/internal/errors"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles the reporting endpoints.
type ReportHandler struct {
	reports services.ReportService
}

// NewReportHandler creates a new ReportHandler instance.
func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// OwnerStatsResponse wraps the per-property statistics.
type OwnerStatsResponse struct {
	Owners []services.OwnerStat `json:"owners"`
}

// Summary handles GET /api/v1/reports?range=week|month|quarter|year.
func (h *ReportHandler) Summary(c *gin.Context) {
	r, err := services.ParseReportRange(c.DefaultQuery("range", string(services.RangeMonth)))
	if err != nil {
		apierrors.FromService(c, err, "Failed to build report")
		return
	}
	summary, err := h.reports.Summary(c.Request.Context(), r)
	if err != nil {
		apierrors.FromService(c, err, "Failed to build report")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Tenant handles GET /api/v1/reports/tenants/:id.
func (h *ReportHandler) Tenant(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.TenantReport(c.Request.Context(), id)
	if err != nil {
		apierrors.FromService(c, err, "Failed to build tenant report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// Payments handles GET /api/v1/reports/payments?from&to&status&method&tenantId.
func (h *ReportHandler) Payments(c *gin.Context) {
	filter, ok := paymentFilter(c)
	if !ok {
		return
	}
	report, err := h.reports.PaymentsReport(c.Request.Context(), filter)
	if err != nil {
		apierrors.FromService(c, err, "Failed to build payments report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// Owners handles GET /api/v1/reports/owners.
func (h *ReportHandler) Owners(c *gin.Context) {
	stats, err := h.reports.OwnerStats(c.Request.Context())
	if err != nil {
		apierrors.FromService(c, err, "Failed to build owner statistics")
		return
	}
	if stats == nil {
		stats = []services.OwnerStat{}
	}
	c.JSON(http.StatusOK, OwnerStatsResponse{Owners: stats})
}
