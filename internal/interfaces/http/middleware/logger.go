package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"userstore.backend/internal/domain/repositories"
	"userstore.backend/pkg/logger"
)

const logFieldsKey = "log_fields"

// AddLogFields attaches fields to the request log line written by LoggerMiddleware
func AddLogFields(c *gin.Context, fields ...zap.Field) {
	if existing, ok := c.Get(logFieldsKey); ok {
		fields = append(existing.([]zap.Field), fields...)
	}
	c.Set(logFieldsKey, fields)
}

// PendingFields describes the queued change set after a write
func PendingFields(p repositories.ChangeCounts) []zap.Field {
	return []zap.Field{
		zap.Int("pending_inserts", p.Inserts),
		zap.Int("pending_updates", p.Updates),
		zap.Int("pending_deletes", p.Deletes),
	}
}

// LoggerMiddleware logs HTTP requests using the structured logger
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		var extra []zap.Field
		if v, ok := c.Get(logFieldsKey); ok {
			extra = v.([]zap.Field)
		}

		// RequestIDMiddleware puts the request id in c.Request.Context()
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), latency, c.ClientIP(), extra...)
	}
}
