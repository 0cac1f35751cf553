package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsHandler returns current request metrics
func MetricsHandler(metrics *RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot := metrics.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"total_requests":       snapshot.TotalRequests,
			"total_errors":         snapshot.TotalErrors,
			"requests_by_endpoint": snapshot.RequestsByEndpoint,
			"requests_by_status":   snapshot.RequestsByStatus,
		})
	}
}
