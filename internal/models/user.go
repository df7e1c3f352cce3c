package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole decides which capabilities an identity holds.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User is a login identity. Tenant users are linked to their tenant record by email.
type User struct {
	CreatedAt    time.Time `json:"createdAt"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Role         UserRole  `json:"role"`
	ID           uuid.UUID `json:"id"`
}
