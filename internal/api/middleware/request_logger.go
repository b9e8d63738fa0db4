package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/metrics"
)

// RequestLogger logs each handled request and records its latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), status, latency)

		entry := GetRequestLogger(c).WithFields(logrus.Fields{
			"status":  status,
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": latency.String(),
			"client":  c.ClientIP(),
		})
		if actorID := c.GetString(ActorIDKey); actorID != "" {
			entry = entry.WithField("actor_id", actorID)
		}
		if status >= http.StatusInternalServerError {
			entry.Warn("handled request")
			return
		}
		entry.Info("handled request")
	}
}
