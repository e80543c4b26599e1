package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template. Unrouted
// paths share one label so scanners cannot blow up label cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
