package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"literacy-hub/backend/pkg/reporter"
	"literacy-hub/backend/pkg/response"
)

// Recovery turns panics into a 500 envelope and reports them. Responses that
// end with a 5xx are reported as errors too.
func Recovery(logger *zap.Logger, rep reporter.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if v := recover(); v != nil {
				err := reporter.PanicError(v)
				logger.Error("panic recovered",
					zap.Error(err),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(requestIDKey)),
					zap.ByteString("stack", debug.Stack()),
				)
				rep.Critical(err, requestExtras(c))
				if !c.Writer.Written() {
					response.InternalError(c)
				}
				c.Abort()
			}
		}()

		c.Next()

		if status := c.Writer.Status(); status >= 500 {
			err := fmt.Errorf("%s %s answered %d", c.Request.Method, routeOf(c), status)
			if len(c.Errors) > 0 {
				err = fmt.Errorf("%w: %s", err, c.Errors.String())
			}
			rep.Error(err, requestExtras(c))
		}
	}
}

func requestExtras(c *gin.Context) map[string]interface{} {
	return map[string]interface{}{
		"method":     c.Request.Method,
		"route":      routeOf(c),
		"request_id": c.GetString(requestIDKey),
		"user_id":    c.GetString(ctxUserID),
	}
}

// routeOf the registered route pattern, so ids don't explode label cardinality.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
