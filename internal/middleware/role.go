package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(message string, roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "Missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(models.Role)
		if _, ok := allowed[role]; !ok {
			metrics.ForbiddenActions.WithLabelValues("role:" + c.FullPath()).Inc()
			response.Forbidden(c, message)
			c.Abort()
			return
		}
		c.Next()
	}
}
