package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "driveops"

// Metrics holds the service's collectors on a private registry.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	messagesSent    *prometheus.CounterVec
	deliveries      prometheus.Counter
	readReceipts    *prometheus.CounterVec
	subscribers     prometheus.Gauge
	approvalWaits   *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messaging", Name: "messages_sent_total",
			Help: "Messages stored, by scope.",
		}, []string{"scope"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messaging", Name: "realtime_deliveries_total",
			Help: "Messages pushed to realtime subscribers.",
		}),
		readReceipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messaging", Name: "read_receipts_total",
			Help: "Read receipt attempts, by result.",
		}, []string{"result"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "messaging", Name: "realtime_subscribers",
			Help: "Open realtime subscriptions.",
		}),
		approvalWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "profiles", Name: "approval_waits_total",
			Help: "Finished approval waits, by outcome.",
		}, []string{"outcome"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messagesSent, m.deliveries, m.readReceipts, m.subscribers,
		m.approvalWaits, m.requestsTotal, m.requestDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MessageSent counts a stored message
func (m *Metrics) MessageSent(scope string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(scope).Inc()
}

// Delivered counts n realtime deliveries
func (m *Metrics) Delivered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deliveries.Add(float64(n))
}

// ReadReceipt counts a read receipt attempt
func (m *Metrics) ReadReceipt(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.readReceipts.WithLabelValues(result).Inc()
}

// SubscriberOpened tracks a new realtime subscription
func (m *Metrics) SubscriberOpened() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

// SubscriberClosed tracks a closed realtime subscription
func (m *Metrics) SubscriberClosed() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

// ApprovalWait counts a finished approval wait
func (m *Metrics) ApprovalWait(outcome string) {
	if m == nil {
		return
	}
	m.approvalWaits.WithLabelValues(outcome).Inc()
}

// HandlerFunc records request count and latency per matched route
func (m *Metrics) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
