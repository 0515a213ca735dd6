package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the engine.
// Methods are nil-safe so components can run unmetered in tests.
type Metrics struct {
	SimulationsTotal        *prometheus.CounterVec // labels: outcome={success,invalid_input,upstream_error}
	AlertsTriggered         *prometheus.CounterVec // labels: type, level
	Notifications           *prometheus.CounterVec // labels: channel={email,sms}, outcome={sent,failed}
	VerificationCodesIssued prometheus.Counter
	MonitorRunning          prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.SimulationsTotal,
		m.AlertsTriggered,
		m.Notifications,
		m.VerificationCodesIssued,
		m.MonitorRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so
// parallel tests avoid "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_alerts",
			Name:      "simulations_total",
			Help:      "Simulation requests by outcome.",
		}, []string{"outcome"}),
		AlertsTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_alerts",
			Name:      "alerts_triggered_total",
			Help:      "Threshold crossings found by check calls.",
		}, []string{"type", "level"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_alerts",
			Name:      "notifications_total",
			Help:      "Delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		VerificationCodesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_alerts",
			Name:      "verification_codes_issued_total",
			Help:      "One-time verification codes issued.",
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_alerts",
			Name:      "monitor_running",
			Help:      "1 when the background location monitor is active.",
		}),
	}
}

func (m *Metrics) IncSimulation(outcome string) {
	if m == nil {
		return
	}
	m.SimulationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncAlertTriggered(alertType, level string) {
	if m == nil {
		return
	}
	m.AlertsTriggered.WithLabelValues(alertType, level).Inc()
}

func (m *Metrics) IncNotification(channel string, sent bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	m.Notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) IncVerificationCode() {
	if m == nil {
		return
	}
	m.VerificationCodesIssued.Inc()
}

func (m *Metrics) SetMonitorRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.MonitorRunning.Set(1)
	} else {
		m.MonitorRunning.Set(0)
	}
}
