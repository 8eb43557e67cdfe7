// Package metrics exposes session and report counters as Prometheus
// collectors on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atdtech/dcdash/pkg/reports"
	"github.com/atdtech/dcdash/pkg/session"
)

const namespace = "dcdash"

// Session outcomes.
const (
	OutcomeAcquired      = "acquired"
	OutcomeReleased      = "released"
	OutcomeConnectFailed = "connect_failed"
	OutcomeSetupFailed   = "setup_failed"
)

// Report outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics implements session.Observer and reports.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	sessions     *prometheus.CounterVec
	sessionsOpen prometheus.Gauge
	sessionHeld  prometheus.Histogram
	duration     *prometheus.HistogramVec
	rows         *prometheus.CounterVec
}

var (
	_ session.Observer = (*Metrics)(nil)
	_ reports.Recorder = (*Metrics)(nil)
)

// New creates the collectors and registers them, along with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Session lifecycle events by outcome.",
		}, []string{"outcome"}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Sessions acquired and not yet released.",
		}),
		sessionHeld: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_held_seconds",
			Help:      "Time between session acquisition and release.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Report run time from filter validation to the last mapped row.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"report", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_rows_total",
			Help:      "Records returned by successful report runs.",
		}, []string{"report"}),
	}

	m.registry.MustRegister(
		m.sessions,
		m.sessionsOpen,
		m.sessionHeld,
		m.duration,
		m.rows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SessionAcquired implements session.Observer.
func (m *Metrics) SessionAcquired() {
	m.sessions.WithLabelValues(OutcomeAcquired).Inc()
	m.sessionsOpen.Inc()
}

// SessionReleased implements session.Observer.
func (m *Metrics) SessionReleased(held time.Duration) {
	m.sessions.WithLabelValues(OutcomeReleased).Inc()
	m.sessionsOpen.Dec()
	m.sessionHeld.Observe(held.Seconds())
}

// SessionFailed implements session.Observer.
func (m *Metrics) SessionFailed(stage session.Stage) {
	switch stage {
	case session.StageConnect:
		m.sessions.WithLabelValues(OutcomeConnectFailed).Inc()
	case session.StageSetup:
		m.sessions.WithLabelValues(OutcomeSetupFailed).Inc()
	}
}

// ReportCompleted implements reports.Recorder.
func (m *Metrics) ReportCompleted(report string, rows int, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.duration.WithLabelValues(report, outcome).Observe(elapsed.Seconds())
	if err == nil {
		m.rows.WithLabelValues(report).Add(float64(rows))
	}
}
