package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stylekart/server/internal/shared/metrics"
)

// Metrics records Prometheus metrics for each request.
// The route template (c.FullPath) is used as the path label to keep
// cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
