package api

import (
	"net/http"

	"storefront-service/internal/models"

	"github.com/gin-gonic/gin"
)

// User is the identity resolved by the auth collaborator. Session issuance
// and verification live outside this service; the core only consumes the
// result.
type User struct {
	ID            string
	Role          string
	EmailVerified bool
}

// UserResolver resolves the current user from a request, or nil for a guest.
type UserResolver interface {
	Resolve(c *gin.Context) *User
}

// GatewayUserResolver trusts identity headers injected by the upstream
// gateway after session validation.
type GatewayUserResolver struct{}

// Resolve returns the user carried in the gateway headers, or nil.
func (GatewayUserResolver) Resolve(c *gin.Context) *User {
	id := c.GetHeader("X-User-Id")
	if id == "" {
		return nil
	}

	role := c.GetHeader("X-User-Role")
	if role == "" {
		role = models.RoleCustomer
	}

	return &User{
		ID:            id,
		Role:          role,
		EmailVerified: c.GetHeader("X-User-Email-Verified") == "true",
	}
}

// requireStaff gates admin-only mutation entry points to moderator/admin
// roles.
func requireStaff(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := resolver.Resolve(c)
		if user == nil || (user.Role != models.RoleAdmin && user.Role != models.RoleModerator) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Staff access required",
			})
			return
		}
		c.Next()
	}
}
