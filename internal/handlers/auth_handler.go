package handlers

import (
	"net/http"

	apierrors "github.com/Omyelshetty/RentApp/internal/errors"
	"github.com/Omyelshetty/RentApp/internal/middleware"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles login and the caller's profile.
type AuthHandler struct {
	auth services.AuthService
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apierrors.FromService(c, err, "Failed to log in")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	user, err := h.auth.Me(c.Request.Context(), identity)
	if err != nil {
		apierrors.FromService(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
