package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trading"

// Metrics holds the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	FramesTotal          *prometheus.CounterVec
	ControlMessagesTotal *prometheus.CounterVec
	EventsTotal          *prometheus.CounterVec
	EventLatency         *prometheus.HistogramVec
	BuyAttemptsTotal     *prometheus.CounterVec
	SellAttemptsTotal    *prometheus.CounterVec
	RedisOperations      *prometheus.HistogramVec
	RedisErrorsTotal     *prometheus.CounterVec
	Orders               *prometheus.GaugeVec
}

// New creates and registers every collector, plus the Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_frames_total",
			Help:      "Frames read from the event stream by outcome",
		}, []string{"outcome"}),

		ControlMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_control_messages_total",
			Help:      "Non-event server messages by kind",
		}, []string{"kind"}),

		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dex_events_total",
			Help:      "DEX events dispatched by kind",
		}, []string{"kind"}),

		EventLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dex_event_latency_seconds",
			Help:      "Delay between producer receipt and client receipt",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),

		BuyAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buy_attempts_total",
			Help:      "Buy attempts by platform and outcome",
		}, []string{"platform", "outcome"}),

		SellAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sell_attempts_total",
			Help:      "Sell attempts by platform and outcome",
		}, []string{"platform", "outcome"}),

		RedisOperations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "redis_operation_duration_seconds",
			Help:      "Redis operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		RedisErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_errors_total",
			Help:      "Failed Redis operations",
		}, []string{"operation"}),

		Orders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders",
			Help:      "Tracked orders by status at the last auto-sell sweep",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FramesTotal,
		m.ControlMessagesTotal,
		m.EventsTotal,
		m.EventLatency,
		m.BuyAttemptsTotal,
		m.SellAttemptsTotal,
		m.RedisOperations,
		m.RedisErrorsTotal,
		m.Orders,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordFrame(outcome string) {
	m.FramesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordControlMessage(kind string) {
	m.ControlMessagesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordEvent(kind string, latency time.Duration) {
	m.EventsTotal.WithLabelValues(kind).Inc()
	if latency > 0 {
		m.EventLatency.WithLabelValues(kind).Observe(latency.Seconds())
	}
}

func (m *Metrics) RecordBuyAttempt(platform, outcome string) {
	m.BuyAttemptsTotal.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) RecordSellAttempt(platform, outcome string) {
	m.SellAttemptsTotal.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) RecordRedisOperation(operation string, duration time.Duration, success bool) {
	m.RedisOperations.WithLabelValues(operation).Observe(duration.Seconds())
	if !success {
		m.RedisErrorsTotal.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) RecordOrders(status string, count int) {
	m.Orders.WithLabelValues(status).Set(float64(count))
}
