package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/msgbox/internal/admin/models"
)

// RequireAPIKey rejects requests whose X-API-Key header does not match
// expected. An empty expected value disables the check entirely.
func RequireAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-Key") != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}
