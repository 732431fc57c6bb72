package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/domain/user"
	"github.com/learnstack/learnhub/internal/identity"
)

// Keep these interfaces small so tests can fake them easily.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, credential string) (identity.Identity, error)
}

type RoleResolver interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	provider IdentityResolver
	users    RoleResolver
}

func NewAuthMiddleware(provider IdentityResolver, users RoleResolver) *AuthMiddleware {
	return &AuthMiddleware{provider: provider, users: users}
}

// RequireAuth resolves the caller's identity from the bearer credential.
// No identity means 401, always; there is no environment-dependent bypass.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid credential")
			return
		}

		id, err := m.provider.ResolveIdentity(c.Request.Context(), raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired credential")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, id.UserID)
		c.Set(ctxEmailKey, id.Email)
		c.Set(ctxNameKey, id.Name)
		c.Set(ctxRoleHintKey, id.Role)

		c.Next()
	}
}

// RequireAdmin gates admin-only operations. The role comes from the user
// store, not from credential claims, so a revoked admin loses access the
// moment the row changes.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := UserIDFromContext(c)

		if !ok || actorID == "" {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, actorID)

		if err != nil || u.Role != user.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Admin role required",
				},
			})
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

func NameFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxNameKey)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
