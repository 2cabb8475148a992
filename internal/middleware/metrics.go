package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

// Metrics records request counts and latency by route template, so
// /api/queue/:email is one series regardless of the address looked up.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
