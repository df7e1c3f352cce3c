package services

import (
	"context"

	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPaymentRepository is a mock implementation of PaymentRepository for testing
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.PaymentRecord) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) record(args mock.Arguments) (*models.PaymentRecord, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	return m.record(m.Called(ctx, id))
}

func (m *MockPaymentRepository) GetByReceiptID(ctx context.Context, receiptID string) (*models.PaymentRecord, error) {
	return m.record(m.Called(ctx, receiptID))
}

func (m *MockPaymentRepository) FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, month string, year int) (*models.PaymentRecord, error) {
	return m.record(m.Called(ctx, tenantID, month, year))
}

func (m *MockPaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *models.PaymentRecord) (bool, error) {
	args := m.Called(ctx, payment)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) UpdateIf(ctx context.Context, payment *models.PaymentRecord, expect repository.PaymentState) (bool, error) {
	args := m.Called(ctx, payment, expect)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) UpdateReceipt(ctx context.Context, id uuid.UUID, receipt repository.ReceiptUpdate) (bool, error) {
	args := m.Called(ctx, id, receipt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockTenantRepository is a mock implementation of TenantRepository for testing
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *MockTenantRepository) tenant(args mock.Arguments) (*models.Tenant, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return m.tenant(m.Called(ctx, id))
}

func (m *MockTenantRepository) GetByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	return m.tenant(m.Called(ctx, email))
}

func (m *MockTenantRepository) List(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) (bool, error) {
	args := m.Called(ctx, tenant)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
