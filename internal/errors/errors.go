package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/middleware"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrForbidden          = "FORBIDDEN"
	ErrConflict           = "CONFLICT"
	ErrStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

func respond(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

func warn(c *gin.Context, msg string, fields map[string]interface{}) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}
	fields["request_id"] = middleware.GetRequestID(c)
	fields["path"] = c.Request.URL.Path
	log.Warn(msg, fields)
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	warn(c, "Resource not found", map[string]interface{}{"message": message})
	respond(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	fields := map[string]interface{}{"message": message}
	if details != nil {
		fields["details"] = details
	}
	warn(c, "Bad request", fields)
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// Unauthorized returns a 401 response.
func Unauthorized(c *gin.Context, message string) {
	warn(c, "Unauthorized", map[string]interface{}{"message": message})
	respond(c, http.StatusUnauthorized, ErrUnauthorized, message, nil)
}

// Forbidden returns a 403 response.
func Forbidden(c *gin.Context, message string) {
	warn(c, "Forbidden", map[string]interface{}{"message": message})
	respond(c, http.StatusForbidden, ErrForbidden, message, nil)
}

// Conflict returns a 409 response naming the conflicting field.
func Conflict(c *gin.Context, field, message string) {
	var details map[string]interface{}
	if field != "" {
		details = map[string]interface{}{"field": field}
	}
	warn(c, "Conflict", map[string]interface{}{"field": field, "message": message})
	respond(c, http.StatusConflict, ErrConflict, message, details)
}

// ServiceUnavailable returns a 503 response with the given code.
func ServiceUnavailable(c *gin.Context, code, message string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Service unavailable", err, map[string]interface{}{
			"request_id": middleware.GetRequestID(c),
			"path":       c.Request.URL.Path,
		})
	}
	respond(c, http.StatusServiceUnavailable, code, message, nil)
}

// InternalServerError returns a 500 Internal Server Error response.
// The error is logged with full context; the client only sees message.
func InternalServerError(c *gin.Context, message string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Internal server error", err, map[string]interface{}{
			"message":    message,
			"request_id": middleware.GetRequestID(c),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
	}
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}
	warn(c, "Validation error", map[string]interface{}{"fields": details})
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
}

// FieldError returns a 400 validation response for a single field.
func FieldError(c *gin.Context, field, message string) {
	details := map[string]interface{}{field: message}
	warn(c, "Validation error", map[string]interface{}{"fields": details})
	respond(c, http.StatusBadRequest, ErrValidation, fmt.Sprintf("%s %s", field, message), details)
}

// BindError answers a failed ShouldBind* call.
func BindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		ValidationError(c, validationErrors)
		return
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		FieldError(c, typeErr.Field, "has the wrong type")
		return
	}
	BadRequest(c, "Invalid request body", nil)
}

// FromService maps a service-layer error onto the response taxonomy. fallback is the
// client message for unexpected errors.
func FromService(c *gin.Context, err error, fallback string) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		conflict   *services.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		FieldError(c, validation.Field, validation.Message)
	case errors.As(err, &notFound):
		NotFound(c, capitalize(notFound.Resource)+" not found")
	case errors.As(err, &conflict):
		Conflict(c, conflict.Field, conflict.Message)
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(c, "Invalid email or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		Unauthorized(c, "Authentication required")
	case errors.Is(err, auth.ErrForbidden):
		Forbidden(c, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrStorageUnavailable):
		ServiceUnavailable(c, ErrStorageUnavailable, "Storage is temporarily unavailable", err)
	case errors.Is(err, services.ErrGatewayDisabled):
		ServiceUnavailable(c, ErrServiceUnavailable, "Online payments are not enabled", err)
	default:
		InternalServerError(c, fallback, err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "len":
		return "Must have length of " + err.Param()
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "uuid":
		return "Must be a valid UUID"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
