package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyStatus is the lifecycle status of a property.
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusInactive PropertyStatus = "inactive"
)

// Property is a building owned by a single owner and split into units.
type Property struct {
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	PropertyName string         `json:"propertyName"`
	OwnerName    string         `json:"ownerName"`
	OwnerEmail   string         `json:"ownerEmail"`
	OwnerPhone   string         `json:"ownerPhone"`
	Address      string         `json:"address"`
	Status       PropertyStatus `json:"status"`
	TotalUnits   int            `json:"totalUnits"`
	ID           uuid.UUID      `json:"id"`
}
