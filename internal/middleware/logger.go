package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDKey = "request_id"
	loggerKey    = "logger"
)

// RequestID injects an X-Request-ID header into the request and response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger attaches a request-scoped logger to the context and writes one access log line per request.
func Logger(base logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := base.WithField("request_id", c.GetString(requestIDKey))
		c.Set(loggerKey, entry)

		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"bytes":   c.Writer.Size(),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.WithFields(fields).Error("http request")
		case status >= http.StatusBadRequest:
			entry.WithFields(fields).Warn("http request")
		default:
			entry.WithFields(fields).Info("http request")
		}
	}
}

// Recovery recovers from panics, logs them, and returns a 500 error.
func Recovery(base logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		GetLogger(c, base).WithField("panic", recovered).Error("http request panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "an internal error occurred"},
		})
	})
}

// GetLogger returns the request-scoped logger, or fallback when none was attached.
func GetLogger(c *gin.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return fallback
}

// GetRequestID returns the request ID set by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
