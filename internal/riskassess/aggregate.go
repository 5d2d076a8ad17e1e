package riskassess

import (
	"fmt"
	"math"
)

// bucketLevel maps an impact score in [0,2] onto the fixed risk buckets.
// Boundaries are inclusive on the upper edge: 0.5 is LOW, 1.0 is MEDIUM,
// 1.5 is HIGH.
func bucketLevel(score float64) RiskLevel {
	switch {
	case score <= 0.5:
		return RiskLow
	case score <= 1.0:
		return RiskMedium
	case score <= 1.5:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Aggregate combines per-category impact scores into an overall score and
// level. Weights for categories outside the request scope are dropped and
// the remainder renormalized so the scoped weights sum to one. A single
// scoped category passes its score through unweighted.
func Aggregate(scores map[Category]float64, scope []Category, weights CategoryWeights) (float64, RiskLevel, error) {
	if err := weights.Validate(); err != nil {
		return 0, "", err
	}
	if len(scope) == 0 {
		return 0, "", &InvariantError{What: "aggregation scope", Value: "empty"}
	}
	for _, c := range scope {
		s, ok := scores[c]
		if !ok {
			return 0, "", &InvariantError{What: "missing category score", Value: string(c)}
		}
		if s < 0 || s > 2 || math.IsNaN(s) {
			return 0, "", &InvariantError{What: "category score out of range", Value: fmt.Sprintf("%s=%v", c, s)}
		}
	}

	if len(scope) == 1 {
		s := scores[scope[0]]
		return s, bucketLevel(s), nil
	}

	var weightSum, acc float64
	for _, c := range scope {
		weightSum += weights.For(c)
	}
	if weightSum <= 0 {
		return 0, "", &InvariantError{What: "scoped weight sum", Value: fmt.Sprintf("%v", weightSum)}
	}
	for _, c := range scope {
		acc += scores[c] * (weights.For(c) / weightSum)
	}
	// Bucket the exact mean; rounding is presentation only. Rounding first
	// could pull a mean just above a threshold under it.
	level := bucketLevel(acc)
	return math.Round(acc*100) / 100, level, nil
}
