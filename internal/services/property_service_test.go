package services

import (
	"context"
	"testing"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyService(t *testing.T) {
	store := repository.NewMemoryStore().Store()
	svc := NewPropertyService(store.Properties, logger.Nop())
	ctx := context.Background()

	property, err := svc.CreateProperty(ctx, PropertyInput{
		PropertyName: "Green View Apartments",
		OwnerName:    "Ravi Kumar",
		OwnerEmail:   "Ravi@Example.com",
		Address:      "12 MG Road, Pune",
		TotalUnits:   12,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusActive, property.Status)
	assert.Equal(t, "ravi@example.com", property.OwnerEmail)

	got, err := svc.GetProperty(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green View Apartments", got.PropertyName)

	updated, err := svc.UpdateProperty(ctx, property.ID, PropertyPatch{TotalUnits: ptr(14)})
	require.NoError(t, err)
	assert.Equal(t, 14, updated.TotalUnits)

	list, err := svc.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 14, list[0].TotalUnits)

	_, err = svc.GetProperty(ctx, uuid.New())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestPropertyService_Validation(t *testing.T) {
	svc := NewPropertyService(repository.NewMemoryStore().Store().Properties, logger.Nop())

	tests := []struct {
		name  string
		input PropertyInput
		field string
	}{
		{"missing name", PropertyInput{OwnerName: "R", Address: "x", TotalUnits: 1}, "propertyName"},
		{"no units", PropertyInput{PropertyName: "P", OwnerName: "R", Address: "x"}, "totalUnits"},
		{"bad owner email", PropertyInput{PropertyName: "P", OwnerName: "R", Address: "x", TotalUnits: 1, OwnerEmail: "nope"}, "ownerEmail"},
		{"bad status", PropertyInput{PropertyName: "P", OwnerName: "R", Address: "x", TotalUnits: 1, Status: "sold"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProperty(context.Background(), tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFieldMessages(t *testing.T) {
	v := newValidator()

	err := validateStruct(v, UserInput{Name: "Admin", Email: "admin@example.com", Password: "short", Role: models.RoleAdmin})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
	assert.Equal(t, "must be at least 8 characters", verr.Message)

	err = validateStruct(v, UserInput{Name: "Admin", Email: "admin@example.com", Password: "long-enough", Role: "owner"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)
	assert.Equal(t, "must be one of admin, user", verr.Message)

	err = validateStruct(v, UserInput{Email: "admin@example.com", Password: "long-enough", Role: models.RoleAdmin})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, "is required", verr.Message)
}
