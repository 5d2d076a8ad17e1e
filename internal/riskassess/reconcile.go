package riskassess

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// categoryScore bundles one category's deterministic outcome for
// reconciliation.
type categoryScore struct {
	Score   float64
	Level   RiskLevel
	Factors []string
}

// Reconcile merges the deterministic results with an optional provider
// narrative into the final record. Numbers always come from the rules engine;
// the narrative contributes prose, extra factors, recommendations, and the
// summary. A nil narrative produces a FALLBACK record built from templates.
func Reconcile(n NormalizedRequest, perCategory map[Category]categoryScore, overallLevel RiskLevel, confidence float64, narrative *Narrative, now time.Time) RiskAssessment {
	factors := make([]RiskFactor, 0, len(n.Scope))
	for _, c := range n.Scope {
		cs := perCategory[c]
		rf := RiskFactor{
			Category:            c,
			RiskLevel:           cs.Level,
			ImpactScore:         cs.Score,
			ContributingFactors: cs.Factors,
		}
		if narrative != nil {
			if cn, ok := narrative.Categories[c]; ok {
				rf.Description = strings.TrimSpace(cn.Description)
				rf.ContributingFactors = mergeFactors(cs.Factors, cn.Factors)
			}
		}
		if rf.Description == "" {
			rf.Description = templateDescription(c, cs.Level)
		}
		factors = append(factors, rf)
	}

	out := RiskAssessment{
		EntityName:         n.EntityName,
		AssessmentDate:     now.UTC(),
		OverallRiskLevel:   overallLevel,
		ConfidenceScore:    confidence,
		RiskFactors:        factors,
		AssessmentID:       uuid.NewString(),
		MethodologyVersion: MethodologyVersion,
		RequestedBy:        n.RequestedBy,
	}

	if narrative != nil {
		out.Mode = ModeComplete
		out.Summary = strings.TrimSpace(narrative.Summary)
		out.Recommendations = trimAll(narrative.Recommendations)
	} else {
		out.Mode = ModeFallback
		out.Summary = templateSummary(n.EntityName, overallLevel, factors)
		out.Recommendations = templateRecommendations(factors)
	}
	return out
}

// mergeFactors keeps the deterministic factors first, then appends narrative
// factors that do not duplicate them. Comparison is case-insensitive.
func mergeFactors(det, extra []string) []string {
	out := make([]string, 0, len(det)+len(extra))
	seen := make(map[string]bool, len(det)+len(extra))
	for _, f := range det {
		key := strings.ToLower(strings.TrimSpace(f))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	for _, f := range extra {
		f = strings.TrimSpace(f)
		key := strings.ToLower(f)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func templateDescription(c Category, level RiskLevel) string {
	return fmt.Sprintf("Rule-based analysis places %s risk at %s.", c, level)
}

func templateSummary(entity string, overall RiskLevel, factors []RiskFactor) string {
	var elevated []string
	for _, f := range factors {
		if levelRank(f.RiskLevel) >= levelRank(RiskHigh) {
			elevated = append(elevated, string(f.Category))
		}
	}
	s := fmt.Sprintf("Risk assessment for %s indicates %s overall risk based on rule-based analysis of %d categories.", entity, overall, len(factors))
	if len(elevated) > 0 {
		s += fmt.Sprintf(" Elevated risk identified in: %s.", strings.Join(elevated, ", "))
	}
	s += " Narrative enrichment was unavailable; findings reflect deterministic scoring only."
	return s
}

func templateRecommendations(factors []RiskFactor) []string {
	recs := []string{"Re-run the assessment with narrative enrichment once the analysis provider recovers."}
	for _, f := range factors {
		if levelRank(f.RiskLevel) < levelRank(RiskHigh) {
			continue
		}
		switch f.Category {
		case CategoryFinancial:
			recs = append(recs, "Review liquidity, leverage, and cash flow projections with finance leadership.")
		case CategoryOperational:
			recs = append(recs, "Audit operational continuity plans and single points of failure.")
		case CategoryMarket:
			recs = append(recs, "Stress test revenue against adverse market and geographic scenarios.")
		case CategoryCompliance:
			recs = append(recs, "Engage compliance counsel to review regulatory obligations across operating regions.")
		}
	}
	if len(recs) == 1 {
		recs = append(recs, "Maintain periodic monitoring; no category currently requires escalated mitigation.")
	}
	return recs
}
