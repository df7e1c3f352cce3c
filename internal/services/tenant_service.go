package services

import (
	"context"
	"strings"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantInput registers a tenant. A non-empty Password also creates the tenant's
// login with the user role.
type TenantInput struct {
	PropertyID       *uuid.UUID              `json:"propertyId"`
	EmergencyContact models.EmergencyContact `json:"emergencyContact"`
	FirstName        string                  `json:"firstName" validate:"required,max=100"`
	LastName         string                  `json:"lastName" validate:"required,max=100"`
	Email            string                  `json:"email" validate:"required,email"`
	Phone            string                  `json:"phone" validate:"max=30"`
	ApartmentNumber  string                  `json:"apartmentNumber" validate:"required,max=20"`
	Status           models.TenantStatus     `json:"status" validate:"omitempty,oneof=active inactive pending"`
	Password         string                  `json:"password" validate:"omitempty,min=8,max=72"`
	RentAmount       decimal.Decimal         `json:"rentAmount"`
}

// TenantPatch is a partial tenant update. Nil fields are left unchanged.
type TenantPatch struct {
	PropertyID       *uuid.UUID               `json:"propertyId"`
	EmergencyContact *models.EmergencyContact `json:"emergencyContact"`
	FirstName        *string                  `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName         *string                  `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email            *string                  `json:"email" validate:"omitempty,email"`
	Phone            *string                  `json:"phone" validate:"omitempty,max=30"`
	ApartmentNumber  *string                  `json:"apartmentNumber" validate:"omitempty,min=1,max=20"`
	Status           *models.TenantStatus     `json:"status" validate:"omitempty,oneof=active inactive pending"`
	RentAmount       *decimal.Decimal         `json:"rentAmount"`
}

// TenantService manages the tenant registry.
type TenantService interface {
	CreateTenant(ctx context.Context, input TenantInput) (*models.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, error)
	// UpdateTenant applies patch. An email change also moves the tenant's login.
	UpdateTenant(ctx context.Context, id uuid.UUID, patch TenantPatch) (*models.Tenant, error)
	// DeleteTenant removes the tenant, its login and its payment records.
	DeleteTenant(ctx context.Context, id uuid.UUID) error
}

type tenantService struct {
	tenants    repository.TenantRepository
	properties repository.PropertyRepository
	payments   repository.PaymentRepository
	users      repository.UserRepository
	receipts   ReceiptEmitter
	validate   *validator.Validate
	log        *logger.Logger
}

// NewTenantService creates a TenantService. receipts may be nil.
func NewTenantService(
	tenants repository.TenantRepository,
	properties repository.PropertyRepository,
	payments repository.PaymentRepository,
	users repository.UserRepository,
	receipts ReceiptEmitter,
	log *logger.Logger,
) TenantService {
	return &tenantService{
		tenants:    tenants,
		properties: properties,
		payments:   payments,
		users:      users,
		receipts:   receipts,
		validate:   newValidator(),
		log:        log,
	}
}

func (s *tenantService) checkProperty(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	property, err := s.properties.GetByID(ctx, *id)
	if err != nil {
		return storeError("load property", "", err)
	}
	if property == nil {
		return notFound("property", *id)
	}
	return nil
}

func (s *tenantService) CreateTenant(ctx context.Context, input TenantInput) (*models.Tenant, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if input.RentAmount.IsNegative() {
		return nil, invalid("rentAmount", "must not be negative")
	}
	if err := s.checkProperty(ctx, input.PropertyID); err != nil {
		return nil, err
	}
	if err := s.checkLoginEmail(ctx, input.Email); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.TenantStatusActive
	}
	tenant := &models.Tenant{
		ID:               uuid.New(),
		PropertyID:       input.PropertyID,
		EmergencyContact: input.EmergencyContact,
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Email:            strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:            strings.TrimSpace(input.Phone),
		ApartmentNumber:  strings.TrimSpace(input.ApartmentNumber),
		Status:           status,
		RentAmount:       input.RentAmount,
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, storeError("insert tenant", "propertyId", err)
	}
	if input.Password != "" {
		if err := s.createLogin(ctx, tenant, input.Password); err != nil {
			if _, delErr := s.tenants.Delete(ctx, tenant.ID); delErr != nil {
				s.log.Error("Failed to roll back tenant", delErr, map[string]interface{}{
					"tenant_id": tenant.ID.String(),
				})
			}
			return nil, err
		}
	}

	s.log.Info("Tenant created", map[string]interface{}{
		"tenant_id": tenant.ID.String(),
		"apartment": tenant.ApartmentNumber,
	})
	return tenant, nil
}

// checkLoginEmail rejects an email already used by any login. Tenant logins are found
// by email, so a tenant must never share one with an administrator.
func (s *tenantService) checkLoginEmail(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return storeError("load user", "", err)
	}
	if existing != nil {
		return &ConflictError{Field: "email", Message: conflictMessages["email"]}
	}
	return nil
}

func (s *tenantService) createLogin(ctx context.Context, tenant *models.Tenant, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{
		ID:           uuid.New(),
		Name:         tenant.FullName(),
		Email:        tenant.Email,
		PasswordHash: hash,
		Phone:        tenant.Phone,
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return storeError("insert tenant login", "", err)
	}
	return nil
}

func (s *tenantService) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load tenant", "", err)
	}
	if tenant == nil {
		return nil, notFound("tenant", id)
	}
	return tenant, nil
}

func (s *tenantService) ListTenants(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, invalid("status", "must be one of active, inactive, pending")
	}
	filter.Search = strings.TrimSpace(filter.Search)

	tenants, err := s.tenants.List(ctx, filter)
	if err != nil {
		return nil, storeError("list tenants", "", err)
	}
	return tenants, nil
}

func (s *tenantService) UpdateTenant(ctx context.Context, id uuid.UUID, patch TenantPatch) (*models.Tenant, error) {
	if err := validateStruct(s.validate, patch); err != nil {
		return nil, err
	}
	tenant, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.PropertyID != nil {
		if err := s.checkProperty(ctx, patch.PropertyID); err != nil {
			return nil, err
		}
		tenant.PropertyID = patch.PropertyID
	}
	if patch.EmergencyContact != nil {
		tenant.EmergencyContact = *patch.EmergencyContact
	}
	if patch.FirstName != nil {
		tenant.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		tenant.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Email != nil {
		email := auth.NormalizeEmail(*patch.Email)
		if email != auth.NormalizeEmail(tenant.Email) {
			if err := s.checkLoginEmail(ctx, email); err != nil {
				return nil, err
			}
		}
		tenant.Email = email
	}
	if patch.Phone != nil {
		tenant.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.ApartmentNumber != nil {
		tenant.ApartmentNumber = strings.TrimSpace(*patch.ApartmentNumber)
	}
	if patch.Status != nil {
		tenant.Status = *patch.Status
	}
	if patch.RentAmount != nil {
		if patch.RentAmount.IsNegative() {
			return nil, invalid("rentAmount", "must not be negative")
		}
		tenant.RentAmount = *patch.RentAmount
	}

	ok, err := s.tenants.Update(ctx, tenant)
	if err != nil {
		return nil, storeError("update tenant", "propertyId", err)
	}
	if !ok {
		return nil, notFound("tenant", id)
	}

	s.log.Info("Tenant updated", map[string]interface{}{"tenant_id": id.String()})
	return tenant, nil
}

func (s *tenantService) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	records, err := s.payments.List(ctx, models.PaymentFilter{TenantID: &id})
	if err != nil {
		return storeError("list tenant payments", "", err)
	}

	ok, err := s.tenants.Delete(ctx, id)
	if err != nil {
		return storeError("delete tenant", "", err)
	}
	if !ok {
		return notFound("tenant", id)
	}

	if s.receipts != nil {
		for _, r := range records {
			if err := s.receipts.Discard(r.ReceiptID); err != nil {
				s.log.Warn("Failed to remove receipt file", map[string]interface{}{
					"receipt_id": r.ReceiptID,
					"error":      err.Error(),
				})
			}
		}
	}

	s.log.Info("Tenant deleted", map[string]interface{}{
		"tenant_id": id.String(),
		"payments":  len(records),
	})
	return nil
}
