package middleware

import (
	"slices"

	"inventory-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const RoleAdmin = "admin"

// RequireRole chặn request nếu role (do AuthMiddleware set) không nằm trong roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" || !slices.Contains(roles, role) {
			response.Forbidden(c, "Access denied: insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminMiddleware: import catalog chỉ dành cho admin
func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}
