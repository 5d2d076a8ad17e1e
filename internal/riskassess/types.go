package riskassess

import (
	"fmt"
	"math"
	"time"
)

// MethodologyVersion tags the deterministic scoring ruleset. Bump whenever a
// rule increment or threshold in scorers.go changes.
const MethodologyVersion = "prism-rules/2"

const (
	MaxContextChars   = 20000
	MaxEntityNameLen  = 200
	DefaultMaxTokens  = 2048
	DefaultModelAlias = "claude-sonnet-4-20250514"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

type Category string

const (
	CategoryFinancial   Category = "financial"
	CategoryOperational Category = "operational"
	CategoryMarket      Category = "market"
	CategoryCompliance  Category = "compliance"
)

// AllCategories is the canonical scoring order, used when a request omits
// assessment_scope.
var AllCategories = []Category{CategoryFinancial, CategoryOperational, CategoryMarket, CategoryCompliance}

type EntityType string

const (
	EntityCompany     EntityType = "company"
	EntityInvestment  EntityType = "investment"
	EntityProject     EntityType = "project"
	EntityPartnership EntityType = "partnership"
	EntityIndividual  EntityType = "individual"
)

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyNormal UrgencyLevel = "normal"
	UrgencyHigh   UrgencyLevel = "high"
)

// AssessmentMode records whether the provider narrative contributed to the
// record or the engine fell back to template narrative.
type AssessmentMode string

const (
	ModeComplete AssessmentMode = "COMPLETE"
	ModeFallback AssessmentMode = "FALLBACK"
)

// FinancialSnapshot carries the optional quantitative inputs. Pointers keep
// "absent" distinct from zero; revenue is annual, margins are percentages.
type FinancialSnapshot struct {
	Revenue      *float64 `json:"revenue,omitempty"`
	ProfitMargin *float64 `json:"profit_margin,omitempty"`
	DebtToEquity *float64 `json:"debt_to_equity,omitempty"`
	CashFlow     *float64 `json:"cash_flow,omitempty"`
}

// AssessmentRequest is the raw payload consumed from the transport layer.
type AssessmentRequest struct {
	EntityName         string             `json:"entity_name"`
	EntityType         string             `json:"entity_type,omitempty"`
	Industry           string             `json:"industry,omitempty"`
	GeographicExposure []string           `json:"geographic_exposure,omitempty"`
	FinancialData      *FinancialSnapshot `json:"financial_data,omitempty"`
	AdditionalContext  string             `json:"additional_context,omitempty"`
	AssessmentScope    []string           `json:"assessment_scope,omitempty"`
	RequestedBy        string             `json:"requested_by,omitempty"`
	UrgencyLevel       string             `json:"urgency_level,omitempty"`
}

// NormalizedRequest is the validated, defaulted form every downstream
// component consumes. It is immutable once produced.
type NormalizedRequest struct {
	EntityName         string
	EntityType         EntityType
	Industry           string
	GeographicExposure []string
	Financial          FinancialSnapshot
	AdditionalContext  string
	Scope              []Category
	RequestedBy        string
	Urgency            UrgencyLevel
}

// InScope reports whether the category was requested.
func (n NormalizedRequest) InScope(c Category) bool {
	for _, s := range n.Scope {
		if s == c {
			return true
		}
	}
	return false
}

// RiskFactor is one scored category. ImpactScore lives in [0,2] and fixes
// RiskLevel through the bucket thresholds in aggregate.go.
type RiskFactor struct {
	Category            Category  `json:"category"`
	RiskLevel           RiskLevel `json:"risk_level"`
	Description         string    `json:"description"`
	ContributingFactors []string  `json:"contributing_factors"`
	ImpactScore         float64   `json:"impact_score"`
}

// RiskAssessment is the final write-once record.
type RiskAssessment struct {
	EntityName         string         `json:"entity_name"`
	AssessmentDate     time.Time      `json:"assessment_date"`
	OverallRiskLevel   RiskLevel      `json:"overall_risk_level"`
	ConfidenceScore    float64        `json:"confidence_score"`
	RiskFactors        []RiskFactor   `json:"risk_factors"`
	Recommendations    []string       `json:"recommendations"`
	Summary            string         `json:"summary"`
	AssessmentID       string         `json:"assessment_id"`
	MethodologyVersion string         `json:"methodology_version"`
	Mode               AssessmentMode `json:"mode"`
	RequestedBy        string         `json:"requested_by,omitempty"`
}

// CategoryWeights maps category to its non-negative aggregation weight.
// Weights are renormalized over the requested scope before use.
type CategoryWeights map[Category]float64

// DefaultWeights returns the stock weighting: financial dominates, compliance
// contributes least.
func DefaultWeights() CategoryWeights {
	return CategoryWeights{
		CategoryFinancial:   0.4,
		CategoryOperational: 0.3,
		CategoryMarket:      0.2,
		CategoryCompliance:  0.1,
	}
}

// For returns the configured weight for c, zero when absent.
func (w CategoryWeights) For(c Category) float64 {
	return w[c]
}

// Validate rejects weight tables with unknown categories or negative or
// non-finite entries.
func (w CategoryWeights) Validate() error {
	if len(w) == 0 {
		return &InvariantError{What: "category weights", Value: "empty"}
	}
	for c, v := range w {
		if !validCategory(c) {
			return &InvariantError{What: "unknown weight category", Value: string(c)}
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvariantError{What: "invalid category weight", Value: fmt.Sprintf("%s=%v", c, v)}
		}
	}
	return nil
}

// categoryNarrative is the provider's per-category contribution. The level is
// a suggestion used only for confidence agreement, never for scoring.
type categoryNarrative struct {
	RiskLevel   RiskLevel `json:"risk_level"`
	Description string    `json:"description"`
	Factors     []string  `json:"factors"`
}

// Narrative is the validated shape of a provider reply.
type Narrative struct {
	Categories      map[Category]categoryNarrative `json:"categories"`
	Recommendations []string                       `json:"recommendations"`
	Summary         string                         `json:"summary"`
}

func validRiskLevel(l RiskLevel) bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	default:
		return false
	}
}

func validCategory(c Category) bool {
	switch c {
	case CategoryFinancial, CategoryOperational, CategoryMarket, CategoryCompliance:
		return true
	default:
		return false
	}
}

// levelRank orders buckets for adjacency comparisons in confidence.go.
func levelRank(l RiskLevel) int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}
