package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/prism-platform/riskengine/internal/riskassess"
)

func TestObserveAssessment(t *testing.T) {
	m := New()
	m.ObserveAssessment(riskassess.RiskHigh, riskassess.ModeComplete, 250*time.Millisecond)
	m.ObserveAssessment(riskassess.RiskHigh, riskassess.ModeComplete, 100*time.Millisecond)
	m.ObserveAssessment(riskassess.RiskLow, riskassess.ModeFallback, 50*time.Millisecond)

	if got := testutil.ToFloat64(m.assessmentsTotal.WithLabelValues("HIGH", "COMPLETE")); got != 2 {
		t.Fatalf("HIGH/COMPLETE count = %v", got)
	}
	if got := testutil.ToFloat64(m.assessmentsTotal.WithLabelValues("LOW", "FALLBACK")); got != 1 {
		t.Fatalf("LOW/FALLBACK count = %v", got)
	}
}

func TestInFlightGauge(t *testing.T) {
	m := New()
	m.AddInFlight(1)
	m.AddInFlight(1)
	m.AddInFlight(-1)
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("in flight = %v", got)
	}
}

func TestProviderAndRejectionCounters(t *testing.T) {
	m := New()
	m.ObserveProviderExchange("success", 2)
	m.ObserveRejection("validation")
	if got := testutil.ToFloat64(m.providerExchanges.WithLabelValues("success")); got != 1 {
		t.Fatalf("provider exchanges = %v", got)
	}
	if got := testutil.ToFloat64(m.rejectionsTotal.WithLabelValues("validation")); got != 1 {
		t.Fatalf("rejections = %v", got)
	}
}
