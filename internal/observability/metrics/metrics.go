package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConciergeMetrics exposes counters/histograms for the booking assistant.
type ConciergeMetrics struct {
	turnsTotal     *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	gatewayErrors  *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	sessionsActive prometheus.Gauge
}

func NewConciergeMetrics(reg prometheus.Registerer) *ConciergeMetrics {
	m := &ConciergeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"intent", "kind"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking submissions by outcome",
		}, []string{"status"}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "salon",
			Name:      "gateway_errors_total",
			Help:      "Total EasySalon API failures",
		}, []string{"endpoint"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "assistant",
			Name:      "turn_latency_seconds",
			Help:      "Latency of conversation turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "concierge",
			Subsystem: "booking",
			Name:      "sessions_active",
			Help:      "Number of live booking sessions",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.gatewayErrors, m.turnLatency, m.sessionsActive)
	return m
}

// ObserveTurn counts one processed turn. kind distinguishes booking turns
// from general Q&A.
func (m *ConciergeMetrics) ObserveTurn(intent, kind string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, kind).Inc()
}

func (m *ConciergeMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ConciergeMetrics) ObserveGatewayError(endpoint string) {
	if m == nil {
		return
	}
	m.gatewayErrors.WithLabelValues(endpoint).Inc()
}

func (m *ConciergeMetrics) ObserveTurnLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(kind).Observe(seconds)
}

func (m *ConciergeMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}
