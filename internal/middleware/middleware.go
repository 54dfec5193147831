package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	CorrelationHeader = "X-Correlation-ID"
	CorrelationKey    = "correlation_id"
)

// Caller supplied ids are only reused when they match this pattern.
var correlationPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// CorrelationID tags every request with an id, reusing the caller's header
// when it is a short alphanumeric token.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationHeader)
		if !correlationPattern.MatchString(id) {
			id = uuid.New().String()
		}

		c.Set(CorrelationKey, id)
		c.Header(CorrelationHeader, id)

		c.Next()
	}
}

// SecurityHeaders adds the browser hardening headers for the screening form.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// RequestLogger writes one structured entry per request. Bodies are never
// logged since they carry patient labs.
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":       c.Request.Method,
			"path":         c.Request.URL.Path,
			"status":       status,
			"latency":      time.Since(start).String(),
			"client_ip":    c.ClientIP(),
			CorrelationKey: c.GetString(CorrelationKey),
		})

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// LimitBodySize caps request bodies at maxBytes.
func LimitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
