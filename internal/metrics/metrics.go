package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collab_ws_connections",
		Help: "Current number of active websocket sessions",
	})
	WsEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_ws_events_total",
		Help: "Inbound websocket events dispatched, by event name",
	}, []string{"event"})
	WsEventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_ws_events_dropped_total",
		Help: "Inbound websocket events dropped, by reason",
	}, []string{"reason"})
	PersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collab_persist_failures_total",
		Help: "File writes that failed after being broadcast",
	})
	ChatMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collab_chat_messages_total",
		Help: "Direct messages accepted",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections,
		WsEventsTotal,
		WsEventsDropped,
		PersistFailures,
		ChatMessagesTotal,
		HttpRequestsTotal,
		HttpRequestDuration,
	)
}

// Drop reasons.
const (
	ReasonDecode          = "decode"
	ReasonUnauthenticated = "unauthenticated"
	ReasonRateLimited     = "rate_limited"
	ReasonInvalid         = "invalid"
)

// GinMiddleware records basic request metrics for Prometheus to scrape.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
