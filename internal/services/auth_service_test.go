package services

import (
	"context"
	"testing"
	"time"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	store := repository.NewMemoryStore().Store()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(store.Users, tokens, logger.Nop())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, UserInput{
		Name:     "Admin",
		Email:    "Admin@Example.com",
		Password: "correct-horse",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	t.Run("login", func(t *testing.T) {
		result, err := svc.Login(ctx, " ADMIN@example.com ", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, result.Role)
		assert.NotEmpty(t, result.Token)

		identity, err := tokens.Verify(result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.UserID)

		me, err := svc.Me(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "Admin", me.Name)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "admin@example.com", "wrong-horse")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "correct-horse")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := svc.Login(ctx, "admin@example.com", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "password", verr.Field)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, UserInput{Name: "Other", Email: "admin@example.com", Password: "correct-horse", Role: models.RoleUser})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "email", conflict.Field)
	})

	t.Run("me without identity", func(t *testing.T) {
		_, err := svc.Me(ctx, auth.Identity{})
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("me for removed user", func(t *testing.T) {
		_, err := svc.Me(ctx, auth.Identity{UserID: uuid.New(), Email: "gone@example.com", Role: models.RoleUser})
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
	})
}
