package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_http_requests_total",
			Help: "Total number of HTTP requests served by the local surface.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatsync_http_request_duration_seconds",
			Help:    "Local surface request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_api_requests_total",
			Help: "Total number of chat REST API calls issued.",
		},
		[]string{"op", "status"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_ws_events_total",
			Help: "Total number of websocket events by direction and type.",
		},
		[]string{"direction", "type"},
	)
	wsDroppedFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_ws_dropped_frames_total",
			Help: "Total number of inbound frames dropped.",
		},
		[]string{"reason"},
	)
	wsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatsync_ws_connected",
			Help: "Whether the realtime connection is currently open.",
		},
	)
	wsReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_ws_reconnects_total",
			Help: "Total number of reconnection attempts.",
		},
	)
	messagesMergedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_messages_merged_total",
			Help: "Total number of messages folded into room timelines.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		apiRequestsTotal,
		wsEventsTotal,
		wsDroppedFramesTotal,
		wsConnected,
		wsReconnectsTotal,
		messagesMergedTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncAPIRequest(op, status string) {
	apiRequestsTotal.WithLabelValues(op, status).Inc()
}

func IncWSEvent(direction, eventType string) {
	wsEventsTotal.WithLabelValues(direction, eventType).Inc()
}

func IncWSDroppedFrame(reason string) {
	wsDroppedFramesTotal.WithLabelValues(reason).Inc()
}

func SetWSConnected(connected bool) {
	if connected {
		wsConnected.Set(1)
	} else {
		wsConnected.Set(0)
	}
}

func IncWSReconnect() {
	wsReconnectsTotal.Inc()
}

func AddMessagesMerged(n int) {
	messagesMergedTotal.Add(float64(n))
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
