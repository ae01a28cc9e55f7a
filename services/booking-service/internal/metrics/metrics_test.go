package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveDecision("", 20*time.Millisecond)
	m.ObserveDecision("SlotUnavailable", 5*time.Millisecond)
	m.ObserveDecision("SlotUnavailable", 5*time.Millisecond)

	if got := testutil.ToFloat64(m.decisions.WithLabelValues(OutcomeAccepted, "none")); got != 1 {
		t.Fatalf("accepted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.decisions.WithLabelValues(OutcomeRejected, "SlotUnavailable")); got != 2 {
		t.Fatalf("rejected = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.latency); got != 2 {
		t.Fatalf("latency series = %d, want 2", got)
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveDecision("InvalidToken", time.Millisecond)
}
