package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-process backend guarded by one RWMutex. It enforces the same
// unique constraints and cascades as the PostgreSQL schema and is used for
// STORE_DRIVER=memory and workflow tests.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	seq        int64
	tenants    []models.Tenant
	properties []models.Property
	users      []models.User
	payments   []memoryPayment
	options    *models.PaymentOptions
}

type memoryPayment struct {
	record models.PaymentRecord
	seq    int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

// Store returns the repositories backed by m.
func (m *MemoryStore) Store() *Store {
	return &Store{
		Tenants:    &memoryTenants{m},
		Properties: &memoryProperties{m},
		Payments:   &memoryPayments{m},
		Users:      &memoryUsers{m},
		Settings:   &memorySettings{m},
	}
}

func (m *MemoryStore) stamp(created, updated *time.Time) {
	now := m.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// Tenants

type memoryTenants struct{ m *MemoryStore }

func (r *memoryTenants) Create(_ context.Context, tenant *models.Tenant) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if err := r.checkUnique(tenant); err != nil {
		return err
	}
	r.m.stamp(&tenant.CreatedAt, &tenant.UpdatedAt)
	r.m.tenants = append(r.m.tenants, *tenant)
	return nil
}

func (r *memoryTenants) checkUnique(tenant *models.Tenant) error {
	for _, t := range r.m.tenants {
		if t.ID == tenant.ID {
			continue
		}
		if strings.EqualFold(t.Email, tenant.Email) {
			return duplicateKey(ConstraintTenantEmail)
		}
		if t.ApartmentNumber == tenant.ApartmentNumber {
			return duplicateKey(ConstraintTenantApartment)
		}
	}
	return nil
}

func (r *memoryTenants) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, t := range r.m.tenants {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryTenants) GetByEmail(_ context.Context, email string) (*models.Tenant, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, t := range r.m.tenants {
		if strings.EqualFold(t.Email, email) {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryTenants) List(_ context.Context, filter models.TenantFilter) ([]models.Tenant, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]models.Tenant, 0, len(r.m.tenants))
	for i := len(r.m.tenants) - 1; i >= 0; i-- {
		t := r.m.tenants[i]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.PropertyID != nil && (t.PropertyID == nil || *t.PropertyID != *filter.PropertyID) {
			continue
		}
		if search != "" && !tenantMatches(t, search) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func tenantMatches(t models.Tenant, search string) bool {
	for _, field := range []string{t.FirstName, t.LastName, t.Email, t.ApartmentNumber} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (r *memoryTenants) Update(_ context.Context, tenant *models.Tenant) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for i := range r.m.tenants {
		if r.m.tenants[i].ID != tenant.ID {
			continue
		}
		if err := r.checkUnique(tenant); err != nil {
			return false, err
		}
		if err := r.moveLogin(r.m.tenants[i].Email, tenant.Email); err != nil {
			return false, err
		}
		tenant.CreatedAt = r.m.tenants[i].CreatedAt
		r.m.stamp(&tenant.CreatedAt, &tenant.UpdatedAt)
		r.m.tenants[i] = *tenant
		return true, nil
	}
	return false, nil
}

// moveLogin renames the tenant login from one email to another. It must be called with
// the lock held.
func (r *memoryTenants) moveLogin(from, to string) error {
	if strings.EqualFold(from, to) {
		return nil
	}
	login := -1
	for i, u := range r.m.users {
		switch {
		case strings.EqualFold(u.Email, to):
			return duplicateKey(ConstraintUserEmail)
		case u.Role == models.RoleUser && strings.EqualFold(u.Email, from):
			login = i
		}
	}
	if login >= 0 {
		r.m.users[login].Email = to
	}
	return nil
}

func (r *memoryTenants) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	idx := -1
	for i, t := range r.m.tenants {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	email := r.m.tenants[idx].Email
	r.m.tenants = append(r.m.tenants[:idx], r.m.tenants[idx+1:]...)

	users := r.m.users[:0]
	for _, u := range r.m.users {
		if u.Role != models.RoleUser || !strings.EqualFold(u.Email, email) {
			users = append(users, u)
		}
	}
	r.m.users = users

	payments := r.m.payments[:0]
	for _, p := range r.m.payments {
		if p.record.TenantID != id {
			payments = append(payments, p)
		}
	}
	r.m.payments = payments
	return true, nil
}

// Properties

type memoryProperties struct{ m *MemoryStore }

func (r *memoryProperties) Create(_ context.Context, property *models.Property) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.stamp(&property.CreatedAt, &property.UpdatedAt)
	r.m.properties = append(r.m.properties, *property)
	return nil
}

func (r *memoryProperties) GetByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, p := range r.m.properties {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryProperties) List(_ context.Context) ([]models.Property, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	result := append([]models.Property(nil), r.m.properties...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PropertyName < result[j].PropertyName
	})
	return result, nil
}

func (r *memoryProperties) Update(_ context.Context, property *models.Property) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for i := range r.m.properties {
		if r.m.properties[i].ID == property.ID {
			property.CreatedAt = r.m.properties[i].CreatedAt
			r.m.stamp(&property.CreatedAt, &property.UpdatedAt)
			r.m.properties[i] = *property
			return true, nil
		}
	}
	return false, nil
}

// Payments

type memoryPayments struct{ m *MemoryStore }

func (r *memoryPayments) Create(_ context.Context, payment *models.PaymentRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if err := r.checkUnique(payment); err != nil {
		return err
	}
	if !r.tenantExists(payment.TenantID) {
		return ErrMissingReference
	}

	r.m.stamp(&payment.CreatedAt, &payment.UpdatedAt)
	r.m.seq++
	r.m.payments = append(r.m.payments, memoryPayment{record: *payment, seq: r.m.seq})
	return nil
}

func (r *memoryPayments) tenantExists(id uuid.UUID) bool {
	for _, t := range r.m.tenants {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (r *memoryPayments) checkUnique(payment *models.PaymentRecord) error {
	for _, p := range r.m.payments {
		rec := p.record
		if rec.ID == payment.ID {
			continue
		}
		if rec.TenantID == payment.TenantID && rec.BillingYear == payment.BillingYear &&
			strings.EqualFold(rec.BillingMonth, payment.BillingMonth) {
			return duplicateKey(ConstraintPaymentPeriod)
		}
		if rec.ReceiptID == payment.ReceiptID {
			return duplicateKey(ConstraintPaymentReceipt)
		}
	}
	return nil
}

func (r *memoryPayments) find(match func(models.PaymentRecord) bool) *models.PaymentRecord {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, p := range r.m.payments {
		if match(p.record) {
			found := p.record
			return &found
		}
	}
	return nil
}

func (r *memoryPayments) GetByID(_ context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	return r.find(func(p models.PaymentRecord) bool { return p.ID == id }), nil
}

func (r *memoryPayments) GetByReceiptID(_ context.Context, receiptID string) (*models.PaymentRecord, error) {
	return r.find(func(p models.PaymentRecord) bool { return p.ReceiptID == receiptID }), nil
}

func (r *memoryPayments) FindByTenantAndPeriod(_ context.Context, tenantID uuid.UUID, month string, year int) (*models.PaymentRecord, error) {
	return r.find(func(p models.PaymentRecord) bool {
		return p.TenantID == tenantID && p.BillingYear == year && strings.EqualFold(p.BillingMonth, month)
	}), nil
}

func (r *memoryPayments) List(_ context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	r.m.mu.RLock()
	matched := make([]memoryPayment, 0, len(r.m.payments))
	for _, p := range r.m.payments {
		if paymentMatches(p.record, filter) {
			matched = append(matched, p)
		}
	}
	r.m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.record.PaymentDate.Equal(b.record.PaymentDate) {
			return a.record.PaymentDate.After(b.record.PaymentDate)
		}
		return a.seq > b.seq
	})

	result := make([]models.PaymentRecord, len(matched))
	for i, p := range matched {
		result[i] = p.record
	}
	return result, nil
}

func paymentMatches(p models.PaymentRecord, f models.PaymentFilter) bool {
	switch {
	case f.TenantID != nil && p.TenantID != *f.TenantID:
		return false
	case f.From != nil && p.PaymentDate.Before(*f.From):
		return false
	case f.To != nil && p.PaymentDate.After(*f.To):
		return false
	case f.Status != nil && p.Status != *f.Status:
		return false
	case f.Method != nil && p.PaymentMethod != *f.Method:
		return false
	}
	return true
}

func (r *memoryPayments) Update(_ context.Context, payment *models.PaymentRecord) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.update(payment, nil)
}

func (r *memoryPayments) UpdateIf(_ context.Context, payment *models.PaymentRecord, expect PaymentState) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.update(payment, &expect)
}

// update must be called with the lock held.
func (r *memoryPayments) update(payment *models.PaymentRecord, expect *PaymentState) (bool, error) {
	for i := range r.m.payments {
		stored := r.m.payments[i].record
		if stored.ID != payment.ID {
			continue
		}
		if expect != nil && (stored.Status != expect.Status || !stored.AmountPaid.Equal(expect.AmountPaid)) {
			return false, nil
		}
		if err := r.checkUnique(payment); err != nil {
			return false, err
		}
		payment.CreatedAt = stored.CreatedAt
		r.m.stamp(&payment.CreatedAt, &payment.UpdatedAt)
		r.m.payments[i].record = *payment
		return true, nil
	}
	return false, nil
}

func (r *memoryPayments) SetStatus(_ context.Context, id uuid.UUID, from, to models.PaymentStatus) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for i := range r.m.payments {
		rec := &r.m.payments[i].record
		if rec.ID != id {
			continue
		}
		if rec.Status != from {
			return false, nil
		}
		rec.Status = to
		rec.UpdatedAt = r.m.now()
		return true, nil
	}
	return false, nil
}

func (r *memoryPayments) UpdateReceipt(_ context.Context, id uuid.UUID, receipt ReceiptUpdate) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for i := range r.m.payments {
		rec := &r.m.payments[i].record
		if rec.ID == id {
			rec.ReceiptStatus = receipt.Status
			rec.ReceiptURL = receipt.URL
			rec.ReceiptError = receipt.Error
			rec.UpdatedAt = r.m.now()
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPayments) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for i := range r.m.payments {
		if r.m.payments[i].record.ID == id {
			r.m.payments = append(r.m.payments[:i], r.m.payments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Users

type memoryUsers struct{ m *MemoryStore }

func (r *memoryUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return duplicateKey(ConstraintUserEmail)
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.m.now()
	}
	r.m.users = append(r.m.users, *user)
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, u := range r.m.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

// Settings

type memorySettings struct{ m *MemoryStore }

func (r *memorySettings) GetPaymentOptions(_ context.Context) (*models.PaymentOptions, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	if r.m.options == nil {
		return nil, nil
	}
	found := *r.m.options
	return &found, nil
}

func (r *memorySettings) SavePaymentOptions(_ context.Context, options models.PaymentOptions) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.options = &options
	return nil
}
