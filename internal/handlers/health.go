package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Omyelshetty/RentApp/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// HealthCheckTimeout is the timeout for storage health checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	startTime time.Time
	env       string
	store     string
}

// NewHealthHandler creates a new HealthHandler instance. db is nil for the memory
// store, which is always ready.
func NewHealthHandler(db Pinger, env, store string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
		env:       env,
		store:     store,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Store       string `json:"store"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health endpoint.
// It does not check any dependencies and is used for liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 200 OK if the store answers a ping, 503 Service Unavailable otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, ReadyResponse{Status: "ready", Storage: "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Storage health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:  "not_ready",
			Storage: "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status:  "ready",
		Storage: "connected",
	})
}

// Info handles GET /api/v1/info endpoint.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Store:       h.store,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
