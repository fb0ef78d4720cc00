// Package metrics holds the prometheus collectors of the enforcement loop.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "plexpatrol"
	subsystem = "monitor"
)

type Metrics struct {
	ticks          *prometheus.CounterVec
	tickDuration   prometheus.Histogram
	fetchErrors    *prometheus.CounterVec
	terminations   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	activeUsers    prometheus.Gauge
	connected      prometheus.Gauge
	storeErrors    *prometheus.CounterVec
	notifications  *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ticks_total",
			Help:      "Monitoring cycles, labeled by outcome.",
		}, []string{"outcome"}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a running monitoring cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		fetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_errors_total",
			Help:      "Failed session fetches, labeled by kind.",
		}, []string{"kind"}),
		terminations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "terminations_total",
			Help:      "Stream stop attempts, labeled by trigger and result.",
		}, []string{"trigger", "result"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_sessions",
			Help:      "Streams in the latest snapshot.",
		}),
		activeUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_users",
			Help:      "Users with at least one stream in the latest snapshot.",
		}),
		connected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "server_connected",
			Help:      "1 while the media server is considered reachable.",
		}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_errors_total",
			Help:      "Store operations that failed during a cycle.",
		}, []string{"op"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_total",
			Help:      "Alerts handed to the notifier, labeled by result.",
		}, []string{"result"}),
	}
}

// StartTick returns a func that records the cycle duration.
func (m *Metrics) StartTick() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.tickDuration.Observe(time.Since(start).Seconds()) }
}

func (m *Metrics) Tick(outcome string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FetchError(kind string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Termination(trigger string, ok bool) {
	if m == nil {
		return
	}
	m.terminations.WithLabelValues(trigger, result(ok)).Inc()
}

func (m *Metrics) Snapshot(users, sessions int) {
	if m == nil {
		return
	}
	m.activeUsers.Set(float64(users))
	m.activeSessions.Set(float64(sessions))
}

func (m *Metrics) Connected(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) Notification(ok bool) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
