package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthenticated means the caller presented no valid credentials.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is authenticated but lacks the capability.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned by login when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Capability names one guarded group of operations.
type Capability string

const (
	CapManagePayments  Capability = "manage_payments"
	CapGenerateDues    Capability = "generate_dues"
	CapViewOwnPayments Capability = "view_own_payments"
	CapManageSettings  Capability = "manage_settings"
	CapViewReports     Capability = "view_reports"
	CapManageTenants   Capability = "manage_tenants"
)

// Identity is the authenticated caller as resolved from a bearer token.
type Identity struct {
	Name   string
	Email  string
	Role   models.UserRole
	UserID uuid.UUID
}

// IsZero reports whether no identity has been resolved.
func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil
}

// Policy maps roles to the capabilities they hold.
type Policy struct {
	grants map[models.UserRole]map[Capability]bool
}

// DefaultPolicy grants admins every capability and tenant users self-service only.
func DefaultPolicy() *Policy {
	p := &Policy{grants: make(map[models.UserRole]map[Capability]bool)}
	p.Grant(models.RoleAdmin,
		CapManagePayments, CapGenerateDues, CapViewOwnPayments,
		CapManageSettings, CapViewReports, CapManageTenants,
	)
	p.Grant(models.RoleUser, CapViewOwnPayments)
	return p
}

// Grant adds capabilities to a role.
func (p *Policy) Grant(role models.UserRole, caps ...Capability) {
	set, ok := p.grants[role]
	if !ok {
		set = make(map[Capability]bool)
		p.grants[role] = set
	}
	for _, c := range caps {
		set[c] = true
	}
}

// Authorize checks that identity holds capability.
func (p *Policy) Authorize(identity Identity, capability Capability) error {
	if identity.IsZero() {
		return ErrUnauthenticated
	}
	if p.grants[identity.Role][capability] {
		return nil
	}
	return fmt.Errorf("%w: role %q lacks %s", ErrForbidden, identity.Role, capability)
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
