package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/homebuilder/internal/logging"
)

// RequestLogger logs one line per request through logrus. Errors attached
// with c.Error are logged in full; clients only see the sanitized text.
func RequestLogger() gin.HandlerFunc {
	log := logging.For("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Microsecond).String(),
			"ip":      c.ClientIP(),
		})
		if u := currentUser(c); u != nil {
			entry = entry.WithField("user", u.Username)
		}
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case c.Writer.Status() >= 500:
			entry.Error("request")
		default:
			entry.Debug("request")
		}
	}
}
