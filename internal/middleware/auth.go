package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pixelplay/notify-api/internal/handler"
	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/pkg/auth"
)

const ContextIdentity = "identity"

type AuthMiddleware struct {
	verifier auth.TokenVerifier
}

func NewAuthMiddleware(verifier auth.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate verifies the bearer token and sets the caller identity in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		identity, err := m.verifier.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextIdentity, identity)
		c.Next()
	}
}

// RequireAdmin rejects callers whose verified identity is not an admin.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil || !identity.IsAdmin() {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the authenticated identity, or nil if the
// request did not pass through Authenticate.
func IdentityFrom(c *gin.Context) *model.Identity {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil
	}
	identity, ok := v.(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}
