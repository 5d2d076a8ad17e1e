package riskassess

import "math"

const (
	confidenceFloor       = 0.30
	completenessWeight    = 0.40
	agreementWeight       = 0.30
	fallbackConfidenceCap = 0.70
)

// completeness is the fraction of the four optional financial fields the
// caller supplied.
func completeness(n NormalizedRequest) float64 {
	present := 0
	for _, f := range []*float64{
		n.Financial.Revenue,
		n.Financial.ProfitMargin,
		n.Financial.DebtToEquity,
		n.Financial.CashFlow,
	} {
		if f != nil {
			present++
		}
	}
	return float64(present) / 4
}

// agreement compares the deterministic per-category levels against the
// provider's suggested levels over the scoped categories. An exact bucket
// match scores 1, an adjacent bucket 0.5, anything further 0. Categories the
// provider did not cover count as 0.
func agreement(levels map[Category]RiskLevel, narrative *Narrative, scope []Category) float64 {
	if narrative == nil || len(scope) == 0 {
		return 0
	}
	var acc float64
	for _, c := range scope {
		cn, ok := narrative.Categories[c]
		if !ok || !validRiskLevel(cn.RiskLevel) {
			continue
		}
		switch delta := levelRank(levels[c]) - levelRank(cn.RiskLevel); {
		case delta == 0:
			acc += 1.0
		case delta == 1 || delta == -1:
			acc += 0.5
		}
	}
	return acc / float64(len(scope))
}

// Confidence scores how much trust to place in the final assessment. With a
// narrative it blends input completeness and provider agreement onto a fixed
// floor; without one the agreement term is gone and the result is capped so a
// fallback record never claims high confidence.
func Confidence(n NormalizedRequest, levels map[Category]RiskLevel, narrative *Narrative, scope []Category) float64 {
	c := confidenceFloor + completenessWeight*completeness(n)
	if narrative != nil {
		c += agreementWeight * agreement(levels, narrative, scope)
	} else if c > fallbackConfidenceCap {
		c = fallbackConfidenceCap
	}
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return math.Round(c*100) / 100
}
