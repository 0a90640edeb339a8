package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/civic-eye/internal/models"
)

const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"

	adminEmailKey = "adminEmail"
)

// Authorizer decides whether an email belongs to an administrator.
type Authorizer interface {
	IsAdmin(email string) bool
}

// RequireAdmin admits requests whose upstream-asserted identity carries the
// admin role and an allow-listed email.
func RequireAdmin(authz Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader(HeaderUserEmail))
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		role := models.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))))
		if role != models.RoleAdmin || !authz.IsAdmin(email) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Set(adminEmailKey, strings.ToLower(email))
		c.Next()
	}
}

func adminEmail(c *gin.Context) string {
	return c.GetString(adminEmailKey)
}
