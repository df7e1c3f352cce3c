package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}

func serveHealth(handler *HealthHandler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", handler.Health)
	router.GET("/health/ready", handler.Ready)
	router.GET("/api/v1/info", handler.Info)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	w := serveHealth(NewHealthHandler(nil, "test", "memory"), "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, HealthResponse{Status: "healthy"}, response)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
		expectedBody   ReadyResponse
	}{
		{
			name:           "memory store is always ready",
			db:             nil,
			expectedStatus: http.StatusOK,
			expectedBody:   ReadyResponse{Status: "ready", Storage: "memory"},
		},
		{
			name:           "database connected",
			db:             stubPinger{},
			expectedStatus: http.StatusOK,
			expectedBody:   ReadyResponse{Status: "ready", Storage: "connected"},
		},
		{
			name:           "database down",
			db:             stubPinger{err: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   ReadyResponse{Status: "not_ready", Storage: "disconnected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveHealth(NewHealthHandler(tt.db, "test", "postgres"), "/health/ready")

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response ReadyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedBody, response)
		})
	}
}

func TestHealthHandler_Info(t *testing.T) {
	handler := NewHealthHandler(nil, "production", "memory")
	handler.startTime = time.Now().Add(-2 * time.Hour)

	w := serveHealth(handler, "/api/v1/info")

	assert.Equal(t, http.StatusOK, w.Code)
	var response InfoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, APIVersion, response.Version)
	assert.Equal(t, "production", response.Environment)
	assert.Equal(t, "memory", response.Store)
	assert.Contains(t, response.Uptime, "2h")
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "seconds only", duration: 45 * time.Second, expected: "0h 0m 45s"},
		{name: "minutes and seconds", duration: 5*time.Minute + 30*time.Second, expected: "0h 5m 30s"},
		{name: "hours", duration: 2*time.Hour + 15*time.Minute + 45*time.Second, expected: "2h 15m 45s"},
		{name: "days", duration: 3*24*time.Hour + 5*time.Hour + 30*time.Minute + 15*time.Second, expected: "3d 5h 30m 15s"},
		{name: "exactly one day", duration: 24 * time.Hour, expected: "1d 0h 0m 0s"},
		{name: "zero", duration: 0, expected: "0h 0m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}

func BenchmarkHealthHandler_Health(b *testing.B) {
	gin.SetMode(gin.TestMode)
	handler := NewHealthHandler(nil, "test", "memory")
	router := gin.New()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
