package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id of a request in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestMetrics holds in-memory request metrics
type RequestMetrics struct {
	mu                 sync.RWMutex
	TotalRequests      uint64
	TotalErrors        uint64
	RequestsByEndpoint map[string]uint64
	RequestsByStatus   map[int]uint64
}

// NewRequestMetrics creates an empty metrics registry
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		RequestsByEndpoint: make(map[string]uint64),
		RequestsByStatus:   make(map[int]uint64),
	}
}

// Snapshot returns a copy of the current request metrics
func (m *RequestMetrics) Snapshot() RequestMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return RequestMetrics{
		TotalRequests:      m.TotalRequests,
		TotalErrors:        m.TotalErrors,
		RequestsByEndpoint: copyMap(m.RequestsByEndpoint),
		RequestsByStatus:   copyMap(m.RequestsByStatus),
	}
}

func (m *RequestMetrics) record(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	if status >= 500 {
		m.TotalErrors++
	}
	m.RequestsByEndpoint[endpoint]++
	m.RequestsByStatus[status]++
}

func copyMap[K comparable](src map[K]uint64) map[K]uint64 {
	dst := make(map[K]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// RequestID reuses the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// StructuredLoggingMiddleware logs every request with its latency and records it in metrics
func StructuredLoggingMiddleware(logger *zap.Logger, metrics *RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		logger.Debug("request started",
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query_params", c.Request.URL.Query().Encode()),
			zap.String("remote_addr", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		// route template keeps /v1/... counters bounded
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.record(method+" "+endpoint, statusCode)

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.Int("bytes_written", c.Writer.Size()),
		}
		if userID, ok := UserID(c); ok {
			fields = append(fields, zap.Uint("user_id", userID))
		}
		logger.Info("request completed", fields...)

		for _, err := range c.Errors {
			logger.Error("request error",
				zap.String("request_id", GetRequestID(c)),
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(err.Err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
	}
}
