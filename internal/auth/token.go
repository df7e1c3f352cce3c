package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string          `json:"user_id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager signing with secret. Tokens expire after ttl.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the user.
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	issued := m.now()
	expires := issued.Add(m.ttl)

	claims := &Claims{
		UserID: user.ID.String(),
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a raw token and returns the identity it carries.
// Any parse, signature or expiry failure yields ErrUnauthenticated.
func (m *TokenManager) Verify(raw string) (Identity, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: unreadable claims", ErrUnauthenticated)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad user id", ErrUnauthenticated)
	}

	return Identity{
		UserID: id,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Join(ErrUnauthenticated, errors.New("authorization header must be 'Bearer <token>'"))
	}
	return strings.TrimSpace(parts[1]), nil
}
