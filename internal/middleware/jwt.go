package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

const (
	// ContextUserID is the key for the caller's user ID (int64) in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for the caller's role (models.Role) in gin context.
	ContextUserRole = "user_role"
)

// TokenValidator resolves a bearer token to the caller it identifies.
type TokenValidator func(token string) (models.Caller, error)

// JWT returns a middleware that validates the bearer token and sets the caller in context.
func JWT(validate TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			metrics.AuthFailures.WithLabelValues("missing_token").Inc()
			response.Unauthorized(c, "Missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			metrics.AuthFailures.WithLabelValues("malformed_header").Inc()
			response.Unauthorized(c, "Invalid authorization header")
			c.Abort()
			return
		}
		caller, err := validate(parts[1])
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, caller.ID)
		c.Set(ContextUserRole, caller.Role)
		c.Next()
	}
}

// CallerFrom returns the caller set by JWT. It panics if JWT did not run, like c.MustGet.
func CallerFrom(c *gin.Context) models.Caller {
	return models.Caller{
		ID:   c.MustGet(ContextUserID).(int64),
		Role: c.MustGet(ContextUserRole).(models.Role),
	}
}
