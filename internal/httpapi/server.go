// Package httpapi exposes the assessment engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/prism-platform/riskengine/internal/riskassess"
)

// Assessor is the engine surface the server needs.
type Assessor interface {
	Assess(ctx context.Context, req riskassess.AssessmentRequest) (riskassess.RiskAssessment, error)
}

// RejectionObserver counts requests turned away before scoring. Optional.
type RejectionObserver interface {
	ObserveRejection(reason string)
}

type Options struct {
	// Version is reported by the status endpoint.
	Version string
	// ProviderEnabled reports whether narrative enrichment is configured.
	ProviderEnabled bool
	// MaxConcurrent is the engine's concurrency ceiling, for status.
	MaxConcurrent int
	// Registry, when set, mounts a /metrics endpoint.
	Registry *prometheus.Registry
	// Rejections, when set, receives validation and backpressure counts.
	Rejections RejectionObserver
}

type Server struct {
	engine  Assessor
	log     *zap.Logger
	opts    Options
	started time.Time
}

func NewServer(engine Assessor, log *zap.Logger, opts Options) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{engine: engine, log: log, opts: opts, started: time.Now()}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/assessments", s.handleAssess)
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/system/status", s.handleSystemStatus)
	if opts.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) observeRejection(reason string) {
	if s.opts.Rejections != nil {
		s.opts.Rejections.ObserveRejection(reason)
	}
}

// writeEngineError maps the engine error taxonomy onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var (
		ve     *riskassess.ValidationError
		bp     *riskassess.BackpressureError
		cfgErr *riskassess.ProviderConfigError
	)
	switch {
	case errors.As(err, &ve):
		s.observeRejection(riskassess.CodeValidation)
		writeJSON(w, http.StatusBadRequest, errorPayload(riskassess.CodeValidation, ve.Error(), false))
	case errors.As(err, &bp):
		s.observeRejection(riskassess.CodeBackpressure)
		w.Header().Set("Retry-After", "5")
		writeJSON(w, http.StatusTooManyRequests, errorPayload(riskassess.CodeBackpressure, bp.Error(), true))
	case errors.As(err, &cfgErr):
		s.log.Error("provider configuration fault", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorPayload(riskassess.CodeProviderConfig, "narrative provider misconfigured", false))
	default:
		s.log.Error("assessment failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorPayload(riskassess.CodeInvariant, "internal error", true))
	}
}

func errorPayload(code, message string, transient bool) map[string]any {
	return map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":      code,
			"message":   message,
			"transient": transient,
		},
	}
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload(riskassess.CodeValidation, "unreadable request body", false))
		return
	}
	var req riskassess.AssessmentRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		s.observeRejection(riskassess.CodeValidation)
		writeJSON(w, http.StatusBadRequest, errorPayload(riskassess.CodeValidation, "invalid JSON: "+err.Error(), false))
		return
	}

	out, err := s.engine.Assess(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":             "riskengine",
		"version":             s.opts.Version,
		"uptime_seconds":      int(time.Since(s.started).Seconds()),
		"methodology_version": riskassess.MethodologyVersion,
		"provider_enabled":    s.opts.ProviderEnabled,
		"max_concurrent":      s.opts.MaxConcurrent,
		"capabilities": []string{
			"financial_risk_analysis",
			"operational_risk_analysis",
			"market_risk_analysis",
			"compliance_risk_analysis",
		},
	})
}
