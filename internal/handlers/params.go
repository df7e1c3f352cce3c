package handlers

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	apierrors "github.com/Omyelshetty/RentApp/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var registerOnce sync.Once

// registerJSONFieldNames makes binding errors report json field names.
func registerJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
}

// uuidParam parses a path parameter, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.FieldError(c, name, "must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime accepts RFC 3339 timestamps and plain dates. Dates are midnight UTC.
func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// optionalTime parses value when set. A bad value is answered with 400 naming field.
func optionalTime(c *gin.Context, field, value string) (*time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, true
	}
	t, err := parseTime(value)
	if err != nil {
		apierrors.FieldError(c, field, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return nil, false
	}
	return &t, true
}

// optionalUUID parses a query value when set.
func optionalUUID(c *gin.Context, field, value string) (*uuid.UUID, bool) {
	if value == "" {
		return nil, true
	}
	id, err := uuid.Parse(value)
	if err != nil {
		apierrors.FieldError(c, field, "must be a valid UUID")
		return nil, false
	}
	return &id, true
}

// endOfDay extends a plain date bound to cover the whole day.
func endOfDay(raw string, t *time.Time) *time.Time {
	if t == nil || strings.Contains(raw, "T") {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}
