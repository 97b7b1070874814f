package middleware

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quillfeed/quillfeed/pkg/logger"
	"github.com/quillfeed/quillfeed/pkg/response"
)

// Recovery traps panics, reports them to Sentry when configured, and
// answers 500 instead of dropping the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.Recover(r)
				}
				logger.Error("request panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
				)
				response.InternalError(c, err)
				c.Abort()
			}
		}()
		c.Next()
	}
}
