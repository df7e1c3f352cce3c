package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantStatus is the lifecycle status of a tenant.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
	TenantStatusPending  TenantStatus = "pending"
)

// Valid reports whether s is a known tenant status.
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusActive, TenantStatusInactive, TenantStatusPending:
		return true
	}
	return false
}

// EmergencyContact is optional contact information stored alongside a tenant.
type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// Tenant represents a person renting an apartment in a property.
// The tenant holds the property reference; properties do not list their tenants.
type Tenant struct {
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	PropertyID       *uuid.UUID       `json:"propertyId,omitempty"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	ApartmentNumber  string           `json:"apartmentNumber"`
	Status           TenantStatus     `json:"status"`
	RentAmount       decimal.Decimal  `json:"rentAmount"`
	ID               uuid.UUID        `json:"id"`
}

// FullName joins the first and last name.
func (t Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// IsActive reports whether the tenant is billed by monthly due generation.
func (t Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// TenantFilter narrows tenant listings. Zero values mean "no filter".
type TenantFilter struct {
	Status     *TenantStatus
	PropertyID *uuid.UUID
	Search     string
}
