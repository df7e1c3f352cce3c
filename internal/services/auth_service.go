package services

import (
	"context"
	"strings"
	"time"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	ExpiresAt time.Time       `json:"expiresAt"`
	Token     string          `json:"token"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
}

// UserInput creates a login identity.
type UserInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Phone    string          `json:"phone" validate:"max=30"`
	Role     models.UserRole `json:"role" validate:"required,oneof=admin user"`
}

// AuthService authenticates users and issues bearer tokens.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Me returns the user behind an authenticated identity.
	Me(ctx context.Context, identity auth.Identity) (*models.User, error)
	CreateUser(ctx context.Context, input UserInput) (*models.User, error)
}

type authService struct {
	users    repository.UserRepository
	tokens   *auth.TokenManager
	validate *validator.Validate
	log      *logger.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, log *logger.Logger) AuthService {
	return &authService{users: users, tokens: tokens, validate: newValidator(), log: log}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeError("load user", "", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		s.log.Warn("Login failed", map[string]interface{}{"email": email})
		return nil, auth.ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", map[string]interface{}{
		"user_id": user.ID.String(),
		"role":    user.Role,
	})
	return &LoginResult{
		Token:     token,
		ExpiresAt: expires,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}

func (s *authService) Me(ctx context.Context, identity auth.Identity) (*models.User, error) {
	if identity.IsZero() {
		return nil, auth.ErrUnauthenticated
	}
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, storeError("load user", "", err)
	}
	if user == nil {
		return nil, notFound("user", identity.UserID)
	}
	return user, nil
}

func (s *authService) CreateUser(ctx context.Context, input UserInput) (*models.User, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        auth.NormalizeEmail(input.Email),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError("insert user", "", err)
	}

	s.log.Info("User created", map[string]interface{}{
		"user_id": user.ID.String(),
		"role":    user.Role,
	})
	return user, nil
}
