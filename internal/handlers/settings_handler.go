package handlers

import (
	"net/http"

	apierrors "github.com/Omyelshetty/RentApp/internal/errors"
	"github.com/Omyelshetty/RentApp/internal/middleware"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
)

// SettingsHandler handles the admin settings endpoints.
type SettingsHandler struct {
	options services.PaymentOptionsService
}

// NewSettingsHandler creates a new SettingsHandler instance.
func NewSettingsHandler(options services.PaymentOptionsService) *SettingsHandler {
	return &SettingsHandler{options: options}
}

// UpdatePaymentOptions handles PUT /api/v1/settings/payment-options.
func (h *SettingsHandler) UpdatePaymentOptions(c *gin.Context) {
	var input services.PaymentOptionsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apierrors.BindError(c, err)
		return
	}
	options, err := h.options.Update(c.Request.Context(), input)
	if err != nil {
		apierrors.FromService(c, err, "Failed to save payment options")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		identity, _ := middleware.GetIdentity(c)
		log.Info("Payment options changed", map[string]interface{}{
			"user_id": identity.UserID.String(),
		})
	}
	c.JSON(http.StatusOK, options)
}
