package services

import (
	"context"
	"strings"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PropertyInput registers a property.
type PropertyInput struct {
	PropertyName string                `json:"propertyName" validate:"required,max=200"`
	OwnerName    string                `json:"ownerName" validate:"required,max=200"`
	OwnerEmail   string                `json:"ownerEmail" validate:"omitempty,email"`
	OwnerPhone   string                `json:"ownerPhone" validate:"max=30"`
	Address      string                `json:"address" validate:"required"`
	Status       models.PropertyStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	TotalUnits   int                   `json:"totalUnits" validate:"min=1"`
}

// PropertyPatch is a partial property update.
type PropertyPatch struct {
	PropertyName *string                `json:"propertyName" validate:"omitempty,min=1,max=200"`
	OwnerName    *string                `json:"ownerName" validate:"omitempty,min=1,max=200"`
	OwnerEmail   *string                `json:"ownerEmail" validate:"omitempty,email"`
	OwnerPhone   *string                `json:"ownerPhone" validate:"omitempty,max=30"`
	Address      *string                `json:"address" validate:"omitempty,min=1"`
	Status       *models.PropertyStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	TotalUnits   *int                   `json:"totalUnits" validate:"omitempty,min=1"`
}

// PropertyService manages properties.
type PropertyService interface {
	CreateProperty(ctx context.Context, input PropertyInput) (*models.Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ListProperties(ctx context.Context) ([]models.Property, error)
	UpdateProperty(ctx context.Context, id uuid.UUID, patch PropertyPatch) (*models.Property, error)
}

type propertyService struct {
	repo     repository.PropertyRepository
	validate *validator.Validate
	log      *logger.Logger
}

// NewPropertyService creates a PropertyService.
func NewPropertyService(repo repository.PropertyRepository, log *logger.Logger) PropertyService {
	return &propertyService{repo: repo, validate: newValidator(), log: log}
}

func (s *propertyService) CreateProperty(ctx context.Context, input PropertyInput) (*models.Property, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = models.PropertyStatusActive
	}
	property := &models.Property{
		ID:           uuid.New(),
		PropertyName: strings.TrimSpace(input.PropertyName),
		OwnerName:    strings.TrimSpace(input.OwnerName),
		OwnerEmail:   strings.ToLower(strings.TrimSpace(input.OwnerEmail)),
		OwnerPhone:   strings.TrimSpace(input.OwnerPhone),
		Address:      strings.TrimSpace(input.Address),
		Status:       status,
		TotalUnits:   input.TotalUnits,
	}
	if err := s.repo.Create(ctx, property); err != nil {
		return nil, storeError("insert property", "", err)
	}

	s.log.Info("Property created", map[string]interface{}{"property_id": property.ID.String()})
	return property, nil
}

func (s *propertyService) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	property, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load property", "", err)
	}
	if property == nil {
		return nil, notFound("property", id)
	}
	return property, nil
}

func (s *propertyService) ListProperties(ctx context.Context) ([]models.Property, error) {
	properties, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError("list properties", "", err)
	}
	return properties, nil
}

func (s *propertyService) UpdateProperty(ctx context.Context, id uuid.UUID, patch PropertyPatch) (*models.Property, error) {
	if err := validateStruct(s.validate, patch); err != nil {
		return nil, err
	}
	property, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.PropertyName != nil {
		property.PropertyName = strings.TrimSpace(*patch.PropertyName)
	}
	if patch.OwnerName != nil {
		property.OwnerName = strings.TrimSpace(*patch.OwnerName)
	}
	if patch.OwnerEmail != nil {
		property.OwnerEmail = strings.ToLower(strings.TrimSpace(*patch.OwnerEmail))
	}
	if patch.OwnerPhone != nil {
		property.OwnerPhone = strings.TrimSpace(*patch.OwnerPhone)
	}
	if patch.Address != nil {
		property.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Status != nil {
		property.Status = *patch.Status
	}
	if patch.TotalUnits != nil {
		property.TotalUnits = *patch.TotalUnits
	}

	ok, err := s.repo.Update(ctx, property)
	if err != nil {
		return nil, storeError("update property", "", err)
	}
	if !ok {
		return nil, notFound("property", id)
	}
	return property, nil
}
