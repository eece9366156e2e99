package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stylekart/server/internal/module/auth"
	"github.com/stylekart/server/internal/shared/response"
)

const (
	// ContextUserIDKey is the gin context key holding the authenticated user ID.
	ContextUserIDKey = "auth_user_id"

	// ContextEmailKey is the gin context key holding the authenticated email.
	ContextEmailKey = "auth_email"

	// ContextRoleKey is the gin context key holding the authenticated role.
	ContextRoleKey = "auth_role"
)

// RequireAuth validates the Authorization bearer token and stores the
// authenticated identity in the request context.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextEmailKey, claims.Email)
		c.Set(ContextRoleKey, claims.Role)

		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin users.
// Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != auth.RoleAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from the gin context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetRole returns the authenticated role from the gin context.
func GetRole(c *gin.Context) string {
	v, ok := c.Get(ContextRoleKey)
	if !ok {
		return ""
	}
	role, _ := v.(string)
	return role
}

// IsAdmin reports whether the authenticated user has the admin role.
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == auth.RoleAdmin
}
