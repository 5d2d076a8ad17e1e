// Package metrics exposes the Prometheus instrumentation for the assessment
// engine and HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prism-platform/riskengine/internal/riskassess"
)

// Metrics implements riskassess.Recorder on top of a Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	assessmentsTotal  *prometheus.CounterVec
	assessmentSeconds prometheus.Histogram
	providerExchanges *prometheus.CounterVec
	providerAttempts  prometheus.Histogram
	inFlight          prometheus.Gauge
	rejectionsTotal   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		assessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Name:      "assessments_total",
			Help:      "Completed assessments by overall risk level and mode.",
		}, []string{"level", "mode"}),
		assessmentSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prism",
			Name:      "assessment_duration_seconds",
			Help:      "End to end assessment latency.",
			Buckets:   []float64{0.01, 0.05, 0.25, 1, 5, 15, 30, 60, 120},
		}),
		providerExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Name:      "provider_exchanges_total",
			Help:      "Narrative provider exchanges by outcome.",
		}, []string{"outcome"}),
		providerAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prism",
			Name:      "provider_attempts_per_exchange",
			Help:      "Transport attempts spent per provider exchange.",
			Buckets:   []float64{1, 2, 3},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "prism",
			Name:      "assessments_in_flight",
			Help:      "Assessments currently holding a concurrency slot.",
		}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Name:      "request_rejections_total",
			Help:      "Requests rejected before scoring, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.assessmentsTotal,
		m.assessmentSeconds,
		m.providerExchanges,
		m.providerAttempts,
		m.inFlight,
		m.rejectionsTotal,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveAssessment(level riskassess.RiskLevel, mode riskassess.AssessmentMode, d time.Duration) {
	m.assessmentsTotal.WithLabelValues(string(level), string(mode)).Inc()
	m.assessmentSeconds.Observe(d.Seconds())
}

func (m *Metrics) ObserveProviderExchange(outcome string, attempts int) {
	m.providerExchanges.WithLabelValues(outcome).Inc()
	m.providerAttempts.Observe(float64(attempts))
}

func (m *Metrics) AddInFlight(delta int) {
	m.inFlight.Add(float64(delta))
}

// ObserveRejection counts a request turned away before scoring, such as a
// validation failure or backpressure.
func (m *Metrics) ObserveRejection(reason string) {
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}
