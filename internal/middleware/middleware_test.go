package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "0123456789abcdef0123456789abcdef"

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates new request ID", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		headerID := w.Header().Get(RequestIDHeader)
		require.NotEmpty(t, headerID)
		assert.Equal(t, headerID, w.Body.String())
		_, err := uuid.Parse(headerID)
		assert.NoError(t, err)
	})

	t.Run("reuses upstream request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "upstream-123")

		w := serve(router, req)
		assert.Equal(t, "upstream-123", w.Body.String())
	})

	t.Run("replaces malformed upstream request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))

		w := serve(router, req)
		assert.NotEqual(t, strings.Repeat("x", 200), w.Body.String())
		assert.Len(t, w.Body.String(), 36)
	})

	t.Run("GetRequestID returns empty string if not set", func(t *testing.T) {
		assert.Equal(t, "", GetRequestID(&gin.Context{}))
	})
}

func TestCORS(t *testing.T) {
	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}

	router := gin.New()
	router.Use(CORS(allowedOrigins))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	router.OPTIONS("/test", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	t.Run("allows request from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://localhost:3000")

		w := serve(router, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("does not set CORS headers for disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://evil.com")

		w := serve(router, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("handles preflight for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "http://localhost:5173")

		w := serve(router, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("wildcard origin", func(t *testing.T) {
		open := gin.New()
		open.Use(CORS([]string{"*"}))
		open.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://anywhere.example")

		w := serve(open, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLogger(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(logger.Nop()))
	router.GET("/test", func(c *gin.Context) {
		assert.NotNil(t, GetLogger(c), "expected logger in context")
		c.String(http.StatusOK, "OK")
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/test?month=March", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Nil(t, GetLogger(&gin.Context{}))
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery(logger.Nop()))
	router.GET("/panic", func(c *gin.Context) { panic("test panic") })
	router.GET("/normal", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errorCode(t, w))
	assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	w = serve(router, httptest.NewRequest(http.MethodGet, "/normal", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuthenticateAndRequireCapability(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	policy := auth.DefaultPolicy()

	router := gin.New()
	router.Use(RequestID(), Logger(logger.Nop()))
	guarded := router.Group("/", Authenticate(tokens))
	guarded.GET("/dues", RequireCapability(policy, auth.CapGenerateDues), func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		require.True(t, ok)
		c.String(http.StatusOK, identity.Email)
	})
	guarded.GET("/me", RequireCapability(policy, auth.CapViewOwnPayments), func(c *gin.Context) {
		c.String(http.StatusOK, "mine")
	})

	issue := func(role models.UserRole) string {
		token, _, err := tokens.Issue(&models.User{ID: uuid.New(), Email: string(role) + "@example.com", Role: role})
		require.NoError(t, err)
		return "Bearer " + token
	}

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "no token", path: "/dues", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "bad token", path: "/dues", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "tenant on admin route", path: "/dues", header: issue(models.RoleUser), wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "admin on admin route", path: "/dues", header: issue(models.RoleAdmin), wantStatus: http.StatusOK},
		{name: "tenant on self route", path: "/me", header: issue(models.RoleUser), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := serve(router, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusNoContent)
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
