package handlers

import (
	"net/http"

	apierrors "github.com/Omyelshetty/RentApp/internal/errors"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
)

// TenantHandler handles the tenant and property registry endpoints.
type TenantHandler struct {
	tenants    services.TenantService
	properties services.PropertyService
}

// NewTenantHandler creates a new TenantHandler instance.
func NewTenantHandler(tenants services.TenantService, properties services.PropertyService) *TenantHandler {
	return &TenantHandler{tenants: tenants, properties: properties}
}

// TenantListResponse wraps a list of tenants.
type TenantListResponse struct {
	Tenants []models.Tenant `json:"tenants"`
	Count   int             `json:"count"`
}

// PropertyListResponse wraps a list of properties.
type PropertyListResponse struct {
	Properties []models.Property `json:"properties"`
	Count      int               `json:"count"`
}

// CreateTenant handles POST /api/v1/tenants.
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var input services.TenantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apierrors.BindError(c, err)
		return
	}
	tenant, err := h.tenants.CreateTenant(c.Request.Context(), input)
	if err != nil {
		apierrors.FromService(c, err, "Failed to create tenant")
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// GetTenant handles GET /api/v1/tenants/:id.
func (h *TenantHandler) GetTenant(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	tenant, err := h.tenants.GetTenant(c.Request.Context(), id)
	if err != nil {
		apierrors.FromService(c, err, "Failed to load tenant")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// ListTenants handles GET /api/v1/tenants?status&propertyId&search.
func (h *TenantHandler) ListTenants(c *gin.Context) {
	filter := models.TenantFilter{Search: c.Query("search")}
	if status := c.Query("status"); status != "" {
		s := models.TenantStatus(status)
		filter.Status = &s
	}
	propertyID, ok := optionalUUID(c, "propertyId", c.Query("propertyId"))
	if !ok {
		return
	}
	filter.PropertyID = propertyID

	tenants, err := h.tenants.ListTenants(c.Request.Context(), filter)
	if err != nil {
		apierrors.FromService(c, err, "Failed to list tenants")
		return
	}
	if tenants == nil {
		tenants = []models.Tenant{}
	}
	c.JSON(http.StatusOK, TenantListResponse{Tenants: tenants, Count: len(tenants)})
}

// UpdateTenant handles PATCH /api/v1/tenants/:id.
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var patch services.TenantPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BindError(c, err)
		return
	}
	tenant, err := h.tenants.UpdateTenant(c.Request.Context(), id, patch)
	if err != nil {
		apierrors.FromService(c, err, "Failed to update tenant")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// DeleteTenant handles DELETE /api/v1/tenants/:id.
func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.tenants.DeleteTenant(c.Request.Context(), id); err != nil {
		apierrors.FromService(c, err, "Failed to delete tenant")
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateProperty handles POST /api/v1/properties.
func (h *TenantHandler) CreateProperty(c *gin.Context) {
	var input services.PropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apierrors.BindError(c, err)
		return
	}
	property, err := h.properties.CreateProperty(c.Request.Context(), input)
	if err != nil {
		apierrors.FromService(c, err, "Failed to create property")
		return
	}
	c.JSON(http.StatusCreated, property)
}

// GetProperty handles GET /api/v1/properties/:id.
func (h *TenantHandler) GetProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	property, err := h.properties.GetProperty(c.Request.Context(), id)
	if err != nil {
		apierrors.FromService(c, err, "Failed to load property")
		return
	}
	c.JSON(http.StatusOK, property)
}

// ListProperties handles GET /api/v1/properties.
func (h *TenantHandler) ListProperties(c *gin.Context) {
	properties, err := h.properties.ListProperties(c.Request.Context())
	if err != nil {
		apierrors.FromService(c, err, "Failed to list properties")
		return
	}
	if properties == nil {
		properties = []models.Property{}
	}
	c.JSON(http.StatusOK, PropertyListResponse{Properties: properties, Count: len(properties)})
}

// UpdateProperty handles PATCH /api/v1/properties/:id.
func (h *TenantHandler) UpdateProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var patch services.PropertyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BindError(c, err)
		return
	}
	property, err := h.properties.UpdateProperty(c.Request.Context(), id, patch)
	if err != nil {
		apierrors.FromService(c, err, "Failed to update property")
		return
	}
	c.JSON(http.StatusOK, property)
}
