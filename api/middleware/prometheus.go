package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	changeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_total",
			Help: "Total number of entity change events processed",
		},
		[]string{"entity", "kind", "status"},
	)

	pushNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_notifications_total",
			Help: "Push notification attempts by outcome",
		},
		[]string{"kind", "status"},
	)

	pushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "push_duration_seconds",
			Help:    "Duration of a single push attempt in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"driver"},
	)
)

// Исходы попытки доставки
const (
	PushSent    = "sent"
	PushFailed  = "failed"
	PushSkipped = "skipped"
)

func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
			serviceName,
		).Inc()

		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			serviceName,
		).Observe(duration)
	}
}

// RecordChangeEvent - status: "handled", "ignored" или "invalid"
func RecordChangeEvent(entity, kind, status string) {
	changeEventsTotal.WithLabelValues(entity, kind, status).Inc()
}

// RecordPush учитывает одну попытку доставки; duration == 0 для пропущенных получателей
func RecordPush(kind, status, driver string, duration time.Duration) {
	pushNotificationsTotal.WithLabelValues(kind, status).Inc()
	if duration > 0 {
		pushDuration.WithLabelValues(driver).Observe(duration.Seconds())
	}
}
