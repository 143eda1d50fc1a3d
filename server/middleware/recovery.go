package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/aidetectsai/detector-api/errors"
	"github.com/aidetectsai/detector-api/logger"
)

// Recovery returns a Gin middleware that recovers from panics and logs the
// stack. Clients see a generic 500, never the panic value.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithComponent("server").Error("panic recovered", map[string]interface{}{
					"error":  fmt.Sprintf("%v", err),
					"stack":  string(debug.Stack()),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.ErrorResponse{
					Error:   "Internal Server Error",
					Message: "Internal server error",
					Status:  http.StatusInternalServerError,
				})
			}
		}()
		c.Next()
	}
}
