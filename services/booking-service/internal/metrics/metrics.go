package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// BookingMetrics counts public booking decisions by outcome and reason code.
type BookingMetrics struct {
	decisions *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharebook",
			Subsystem: "booking",
			Name:      "decisions_total",
			Help:      "Public booking submissions by outcome and reason code",
		}, []string{"outcome", "reason"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sharebook",
			Subsystem: "booking",
			Name:      "submit_seconds",
			Help:      "Latency of public booking submissions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.decisions, m.latency)
	return m
}

// ObserveDecision records one submission. An empty reason means accepted.
func (m *BookingMetrics) ObserveDecision(reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeRejected
	if reason == "" {
		outcome = OutcomeAccepted
		reason = "none"
	}
	m.decisions.WithLabelValues(outcome, reason).Inc()
	m.latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
