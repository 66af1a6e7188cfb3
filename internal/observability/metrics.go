package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// hazard session.
type Metrics struct {
	RefreshTotal    *prometheus.CounterVec // labels: path={cheap,full}, trigger={manual,periodic}, outcome={success,error}
	StaleDiscards   prometheus.Counter
	SessionRunning  prometheus.Gauge
	RefreshDuration *prometheus.HistogramVec // labels: path

	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider

	// Alert and alarm metrics.
	ActiveSeverity   prometheus.Gauge
	AlarmTransitions *prometheus.CounterVec // labels: state={sounding,silent}
	AlarmSounding    prometheus.Gauge

	// Radar overlay metrics.
	RadarRefreshes *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all session metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_shield",
			Name:      "refresh_total",
			Help:      "Refresh cycles by path, trigger, and outcome.",
		}, []string{"path", "trigger", "outcome"}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_shield",
			Name:      "stale_refresh_discards_total",
			Help:      "In-flight results discarded because a newer request superseded them.",
		}),
		SessionRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_shield",
			Name:      "session_running",
			Help:      "1 when the session actor is active, 0 when shut down.",
		}),
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_shield",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete refresh cycle by path.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"path"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_shield",
			Name:      "provider_requests_total",
			Help:      "External provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_shield",
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		ActiveSeverity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_shield",
			Name:      "active_severity",
			Help:      "Highest active alert severity (0=none, 1=low .. 4=critical).",
		}),
		AlarmTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_shield",
			Name:      "alarm_transitions_total",
			Help:      "Alarm state machine transitions by target state.",
		}, []string{"state"}),
		AlarmSounding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_shield",
			Name:      "alarm_sounding",
			Help:      "1 while the alarm is inside a sounding window.",
		}),
		RadarRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_shield",
			Name:      "radar_refreshes_total",
			Help:      "Radar overlay metadata refreshes by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.RefreshTotal,
		m.StaleDiscards,
		m.SessionRunning,
		m.RefreshDuration,
		m.ProviderRequests,
		m.ProviderDuration,
		m.ActiveSeverity,
		m.AlarmTransitions,
		m.AlarmSounding,
		m.RadarRefreshes,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RefreshTotal:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_shield", Name: "refresh_total"}, []string{"path", "trigger", "outcome"}),
		StaleDiscards:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_shield", Name: "stale_refresh_discards_total"}),
		SessionRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_shield", Name: "session_running"}),
		RefreshDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_shield", Name: "refresh_duration_seconds"}, []string{"path"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_shield", Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_shield", Name: "provider_request_duration_seconds"}, []string{"provider"}),
		ActiveSeverity:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_shield", Name: "active_severity"}),
		AlarmTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_shield", Name: "alarm_transitions_total"}, []string{"state"}),
		AlarmSounding:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_shield", Name: "alarm_sounding"}),
		RadarRefreshes:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_shield", Name: "radar_refreshes_total"}, []string{"outcome"}),
	}
}
