package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	DocumentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartqa_documents_processed_total",
			Help: "Documents run through extraction and embedding",
		},
		[]string{"status"},
	)

	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartqa_ai_requests_total",
			Help: "Calls to the generative AI backend",
		},
		[]string{"operation", "status"},
	)

	TestSubmissions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smartqa_test_submissions_total",
			Help: "Submitted test attempts",
		},
	)

	ProctorViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartqa_proctor_violations_total",
			Help: "Proctoring violations reported by clients",
		},
		[]string{"type"},
	)
)

var initOnce sync.Once

// Init 可重复调用，只注册一次
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			DocumentsProcessed,
			AIRequests,
			TestSubmissions,
			ProctorViolations,
		)
	})
}

func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
