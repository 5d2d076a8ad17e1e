package riskassess

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxConcurrent   = 8
	DefaultProviderTimeout = 60 * time.Second
)

// Recorder receives engine telemetry. internal/metrics provides the
// Prometheus implementation; the zero value of the engine uses a no-op.
type Recorder interface {
	ObserveAssessment(level RiskLevel, mode AssessmentMode, d time.Duration)
	ObserveProviderExchange(outcome string, attempts int)
	AddInFlight(delta int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAssessment(RiskLevel, AssessmentMode, time.Duration) {}
func (nopRecorder) ObserveProviderExchange(string, int)                        {}
func (nopRecorder) AddInFlight(int)                                            {}

// EngineConfig tunes one engine instance. Zero values fall back to defaults.
type EngineConfig struct {
	Weights         CategoryWeights
	MaxConcurrent   int
	ProviderTimeout time.Duration
}

// Engine runs the full assessment flow: normalize, score, enrich, reconcile.
// A nil caller disables enrichment and every assessment is a fallback.
type Engine struct {
	executor        *NarrativeExecutor
	weights         CategoryWeights
	sem             chan struct{}
	providerTimeout time.Duration
	log             *zap.Logger
	rec             Recorder
	nowFn           func() time.Time
}

func NewEngine(caller NarrativeCaller, cfg EngineConfig, log *zap.Logger, rec Recorder) *Engine {
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	e := &Engine{
		weights:         cfg.Weights,
		sem:             make(chan struct{}, cfg.MaxConcurrent),
		providerTimeout: cfg.ProviderTimeout,
		log:             log,
		rec:             rec,
		nowFn:           time.Now,
	}
	if caller != nil {
		e.executor = NewNarrativeExecutor(caller)
	}
	return e
}

// Assess runs one assessment end to end. Validation faults and backpressure
// return errors; a failing provider does not, it degrades the record to
// FALLBACK mode. Only a provider configuration fault aborts the assessment
// after validation.
func (e *Engine) Assess(ctx context.Context, req AssessmentRequest) (RiskAssessment, error) {
	n, err := Normalize(req)
	if err != nil {
		return RiskAssessment{}, err
	}

	select {
	case e.sem <- struct{}{}:
	default:
		return RiskAssessment{}, &BackpressureError{Limit: cap(e.sem)}
	}
	defer func() { <-e.sem }()
	e.rec.AddInFlight(1)
	defer e.rec.AddInFlight(-1)

	start := e.nowFn()

	scores := make(map[Category]float64, len(n.Scope))
	levels := make(map[Category]RiskLevel, len(n.Scope))
	perCategory := make(map[Category]categoryScore, len(n.Scope))
	for _, c := range n.Scope {
		s, contributing := ScoreCategory(c, n)
		scores[c] = s
		levels[c] = bucketLevel(s)
		perCategory[c] = categoryScore{Score: s, Level: levels[c], Factors: contributing}
	}

	// The provider exchange is the only suspending step. It runs while
	// aggregation finishes; reconciliation waits only on its result.
	type narrativeResult struct {
		narrative *Narrative
		err       error
	}
	fetchCtx, cancelFetch := context.WithCancel(ctx)
	defer cancelFetch()
	narrCh := make(chan narrativeResult, 1)
	go func() {
		nr, err := e.fetchNarrative(fetchCtx, n, scores, levels)
		narrCh <- narrativeResult{narrative: nr, err: err}
	}()

	_, overallLevel, err := Aggregate(scores, n.Scope, e.weights)
	if err != nil {
		return RiskAssessment{}, err
	}

	res := <-narrCh
	narrative, err := res.narrative, res.err
	if err != nil {
		var cfgErr *ProviderConfigError
		if errors.As(err, &cfgErr) {
			return RiskAssessment{}, err
		}
		e.log.Warn("narrative enrichment failed, degrading to fallback",
			zap.String("entity", n.EntityName),
			zap.Error(err))
		narrative = nil
	}

	confidence := Confidence(n, levels, narrative, n.Scope)
	out := Reconcile(n, perCategory, overallLevel, confidence, narrative, e.nowFn())

	e.rec.ObserveAssessment(out.OverallRiskLevel, out.Mode, e.nowFn().Sub(start))
	e.log.Info("assessment complete",
		zap.String("assessment_id", out.AssessmentID),
		zap.String("entity", out.EntityName),
		zap.String("overall_risk_level", string(out.OverallRiskLevel)),
		zap.String("mode", string(out.Mode)),
		zap.Float64("confidence", out.ConfidenceScore))
	return out, nil
}

// fetchNarrative runs the provider exchange under its own deadline. A nil
// executor short-circuits straight to fallback.
func (e *Engine) fetchNarrative(ctx context.Context, n NormalizedRequest, scores map[Category]float64, levels map[Category]RiskLevel) (*Narrative, error) {
	if e.executor == nil {
		return nil, &ProviderUnavailable{Reason: "no provider configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, e.providerTimeout)
	defer cancel()

	prompt := buildNarrativePrompt(n, scores, levels)
	var nr Narrative
	metrics, err := e.executor.Run(ctx, prompt, &nr, func() error {
		return validateNarrative(&nr, n.Scope)
	})
	if err != nil {
		e.rec.ObserveProviderExchange("failure", metrics.Attempts)
		return nil, err
	}
	e.rec.ObserveProviderExchange("success", metrics.Attempts)
	if metrics.ContentRetries > 0 {
		e.log.Debug("provider reply accepted after content retries",
			zap.String("entity", n.EntityName),
			zap.Int("content_retries", metrics.ContentRetries))
	}
	return &nr, nil
}
