package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/middleware"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Set Gin to test mode to suppress logs during tests
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	// Create a test request
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	// Add logger to context (using development logger for tests)
	log := logger.New("development")
	c.Set(middleware.LoggerKey, log)

	// Add request ID to context
	c.Set(middleware.RequestIDKey, "test-request-id")

	return c, w
}

// parseErrorResponse parses the JSON response into an ErrorResponse struct.
func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	var response ErrorResponse
	err := json.Unmarshal(body.Bytes(), &response)
	require.NoError(t, err, "Failed to parse error response JSON")
	return response
}

func TestResponders(t *testing.T) {
	tests := []struct {
		name    string
		respond func(c *gin.Context)
		status  int
		code    string
		message string
		details map[string]interface{}
	}{
		{
			name:    "not found",
			respond: func(c *gin.Context) { NotFound(c, "Tenant not found") },
			status:  http.StatusNotFound,
			code:    ErrNotFound,
			message: "Tenant not found",
		},
		{
			name: "bad request with details",
			respond: func(c *gin.Context) {
				BadRequest(c, "Invalid range", map[string]interface{}{"range": "fortnight"})
			},
			status:  http.StatusBadRequest,
			code:    ErrBadRequest,
			message: "Invalid range",
			details: map[string]interface{}{"range": "fortnight"},
		},
		{
			name:    "unauthorized",
			respond: func(c *gin.Context) { Unauthorized(c, "Missing bearer token") },
			status:  http.StatusUnauthorized,
			code:    ErrUnauthorized,
			message: "Missing bearer token",
		},
		{
			name:    "forbidden",
			respond: func(c *gin.Context) { Forbidden(c, "Not allowed to generate dues") },
			status:  http.StatusForbidden,
			code:    ErrForbidden,
			message: "Not allowed to generate dues",
		},
		{
			name:    "conflict",
			respond: func(c *gin.Context) { Conflict(c, "email", "a tenant with this email already exists") },
			status:  http.StatusConflict,
			code:    ErrConflict,
			message: "a tenant with this email already exists",
			details: map[string]interface{}{"field": "email"},
		},
		{
			name: "service unavailable",
			respond: func(c *gin.Context) {
				ServiceUnavailable(c, ErrStorageUnavailable, "Storage is unavailable, try again shortly", errors.New("dial tcp"))
			},
			status:  http.StatusServiceUnavailable,
			code:    ErrStorageUnavailable,
			message: "Storage is unavailable, try again shortly",
		},
		{
			name: "internal",
			respond: func(c *gin.Context) {
				InternalServerError(c, "Failed to render receipt", errors.New("disk full"))
			},
			status:  http.StatusInternalServerError,
			code:    ErrInternalServer,
			message: "Failed to render receipt",
		},
		{
			name:    "single field",
			respond: func(c *gin.Context) { FieldError(c, "id", "must be a valid UUID") },
			status:  http.StatusBadRequest,
			code:    ErrValidation,
			message: "id must be a valid UUID",
			details: map[string]interface{}{"id": "must be a valid UUID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTestContext()

			tt.respond(c)

			assert.Equal(t, tt.status, w.Code)
			response := parseErrorResponse(t, w.Body)
			assert.Equal(t, tt.code, response.Error.Code)
			assert.Equal(t, tt.message, response.Error.Message)
			assert.Equal(t, "test-request-id", response.Error.RequestID)
			assert.Equal(t, tt.details, response.Error.Details)
		})
	}
}

func TestValidationError(t *testing.T) {
	c, w := setupTestContext()

	type tenantInput struct {
		Email      string `validate:"required,email"`
		RentAmount int    `validate:"gte=0"`
	}

	err := validator.New().Struct(tenantInput{Email: "jane-at-example", RentAmount: -1})
	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	ValidationError(c, validationErrors)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Validation failed for one or more fields", response.Error.Message)
	assert.Equal(t, "Must be a valid email address", response.Error.Details["Email"])
	assert.Equal(t, "Must be greater than or equal to 0", response.Error.Details["RentAmount"])
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		tag, param, expected string
	}{
		{"required", "", "This field is required"},
		{"email", "", "Must be a valid email address"},
		{"min", "1", "Value is too short or small (minimum: 1)"},
		{"max", "12", "Value is too long or large (maximum: 12)"},
		{"len", "6", "Must have length of 6"},
		{"gt", "0", "Must be greater than 0"},
		{"gte", "0", "Must be greater than or equal to 0"},
		{"lt", "29", "Must be less than 29"},
		{"lte", "28", "Must be less than or equal to 28"},
		{"oneof", "active inactive", "Must be one of: active inactive"},
		{"uuid", "", "Must be a valid UUID"},
		{"iso4217", "", "Validation failed for tag: iso4217"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValidationError(&mockFieldError{tag: tt.tag, param: tt.param}))
		})
	}
}

func TestRespondWithoutRequestContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/123", nil)

	NotFound(c, "Payment not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Empty(t, response.Error.RequestID)
}

func TestFromService(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		check  func(t *testing.T, detail ErrorDetail)
	}{
		{
			name:   "validation",
			err:    &services.ValidationError{Field: "amount", Message: "must be greater than 0"},
			status: http.StatusBadRequest,
			code:   ErrValidation,
			check: func(t *testing.T, d ErrorDetail) {
				assert.Equal(t, "must be greater than 0", d.Details["amount"])
			},
		},
		{
			name:   "not found",
			err:    &services.NotFoundError{Resource: "payment", ID: "42"},
			status: http.StatusNotFound,
			code:   ErrNotFound,
			check: func(t *testing.T, d ErrorDetail) {
				assert.Equal(t, "Payment not found", d.Message)
			},
		},
		{
			name:   "conflict",
			err:    &services.ConflictError{Field: "billingPeriod", Message: "a payment already exists for this tenant and billing period"},
			status: http.StatusConflict,
			code:   ErrConflict,
			check: func(t *testing.T, d ErrorDetail) {
				assert.Equal(t, "billingPeriod", d.Details["field"])
			},
		},
		{
			name:   "bad credentials",
			err:    auth.ErrInvalidCredentials,
			status: http.StatusUnauthorized,
			code:   ErrUnauthorized,
		},
		{
			name:   "forbidden",
			err:    auth.ErrForbidden,
			status: http.StatusForbidden,
			code:   ErrForbidden,
		},
		{
			name:   "storage down",
			err:    fmt.Errorf("list payments: %w", services.ErrStorageUnavailable),
			status: http.StatusServiceUnavailable,
			code:   ErrStorageUnavailable,
			check: func(t *testing.T, d ErrorDetail) {
				assert.NotContains(t, d.Message, "list payments")
			},
		},
		{
			name:   "gateway disabled",
			err:    services.ErrGatewayDisabled,
			status: http.StatusServiceUnavailable,
			code:   ErrServiceUnavailable,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   ErrInternalServer,
			check: func(t *testing.T, d ErrorDetail) {
				assert.Equal(t, "Failed to process request", d.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTestContext()

			FromService(c, tt.err, "Failed to process request")

			assert.Equal(t, tt.status, w.Code)
			response := parseErrorResponse(t, w.Body)
			assert.Equal(t, tt.code, response.Error.Code)
			assert.Equal(t, "test-request-id", response.Error.RequestID)
			if tt.check != nil {
				tt.check(t, response.Error)
			}
		})
	}
}

func TestBindError(t *testing.T) {
	type body struct {
		Amount int `json:"amount" binding:"required"`
	}

	t.Run("wrong type", func(t *testing.T) {
		c, w := setupTestContext()
		c.Request = httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{"amount":"lots"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var b body
		BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrValidation, response.Error.Code)
		assert.Contains(t, response.Error.Details, "amount")
	})

	t.Run("malformed json", func(t *testing.T) {
		c, w := setupTestContext()
		c.Request = httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{`))
		c.Request.Header.Set("Content-Type", "application/json")

		var b body
		BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrBadRequest, parseErrorResponse(t, w.Body).Error.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		c, w := setupTestContext()
		c.Request = httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var b body
		BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrValidation, response.Error.Code)
		assert.Equal(t, "This field is required", response.Error.Details["Amount"])
	})
}

// mockFieldError is a mock implementation of validator.FieldError for testing.
type mockFieldError struct {
	tag   string
	param string
}

func (m *mockFieldError) Tag() string                    { return m.tag }
func (m *mockFieldError) ActualTag() string              { return m.tag }
func (m *mockFieldError) Namespace() string              { return "" }
func (m *mockFieldError) StructNamespace() string        { return "" }
func (m *mockFieldError) Field() string                  { return "TestField" }
func (m *mockFieldError) StructField() string            { return "TestField" }
func (m *mockFieldError) Value() interface{}             { return nil }
func (m *mockFieldError) Param() string                  { return m.param }
func (m *mockFieldError) Kind() reflect.Kind             { return reflect.String }
func (m *mockFieldError) Type() reflect.Type             { return nil }
func (m *mockFieldError) Translate(ut.Translator) string { return "" }
func (m *mockFieldError) Error() string                  { return "" }
