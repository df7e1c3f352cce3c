package middleware

import (
	"errors"
	"net/http"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the authenticated auth.Identity.
const IdentityKey = "identity"

// Authenticate resolves the bearer token into an identity. Requests without a valid
// token are rejected with 401.
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var identity auth.Identity
			identity, err = tokens.Verify(raw)
			if err == nil {
				c.Set(IdentityKey, identity)
				c.Next()
				return
			}
		}

		if log := GetLogger(c); log != nil {
			log.Debug("Authentication failed", map[string]interface{}{"reason": err.Error()})
		}
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
}

// RequireCapability rejects callers whose identity lacks capability under policy.
// It must run after Authenticate.
func RequireCapability(policy *auth.Policy, capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := GetIdentity(c)
		err := policy.Authorize(identity, capability)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, auth.ErrUnauthenticated):
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		default:
			if log := GetLogger(c); log != nil {
				log.Warn("Capability check failed", map[string]interface{}{
					"capability": capability,
					"role":       identity.Role,
					"user_id":    identity.UserID.String(),
				})
			}
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action")
		}
	}
}

// GetIdentity returns the caller identity set by Authenticate.
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	if value, exists := c.Get(IdentityKey); exists {
		if identity, ok := value.(auth.Identity); ok {
			return identity, true
		}
	}
	return auth.Identity{}, false
}
