package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/pkg/middleware/requestid"
)

// Audit writes an audit log line after successful requests performing action
// on resource. The acting user is taken from the request's workspace.
func Audit(log *zap.Logger, action, resource string) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
		}
		if ws, ok := CurrentWorkspace(c); ok {
			if user := ws.Session.User(); user != nil {
				fields = append(fields, zap.Int("user_id", user.ID), zap.String("user_email", user.Email))
			}
		}
		log.Info("audit", fields...)
	}
}
