package riskassess

import (
	"fmt"
	"math"
)

// Rule increments for the deterministic scorers. The bucket boundaries in
// aggregate.go are fixed; these constants are what MethodologyVersion tags.
const (
	financialBase          = 0.20
	marginNegativeAdd      = 0.60
	marginThinAdd          = 0.40 // margin below 5%
	marginModestAdd        = 0.20 // margin below 15%
	marginUnknownAdd       = 0.25
	leverageHighAdd        = 0.50 // debt/equity above 2.0
	leverageElevatedAdd    = 0.25 // debt/equity above 1.0
	leverageMidAdd         = 0.10 // debt/equity above 0.5
	leverageUnknownAdd     = 0.20
	cashFlowNegativeAdd    = 0.50
	cashFlowThinAdd        = 0.20 // cash flow below 5% of revenue
	cashFlowUnknownAdd     = 0.15
	cashFlowUnknownHighLev = 0.40 // unspecified cash flow while leverage is high
	revenueUnknownAdd      = 0.15

	qualitativeBase    = 0.75
	complianceBase     = 0.50
	regionUnknownAdd   = 0.10
	regionBreadthAdd   = 0.25 // more than three distinct regions
	regionHighRiskAdd  = 0.50
	regionStableRelief = 0.25
	crossBorderAdd     = 0.20 // two or more regions for compliance
	regulatedEntityAdd = 0.50
	keywordAdd         = 0.25
	keywordCap         = 0.50
	complianceKwAdd    = 0.30
	complianceKwCap    = 0.60
)

// ScoreCategory dispatches to the scorer for one category. Pure and
// deterministic: identical normalized input always yields identical output.
func ScoreCategory(c Category, n NormalizedRequest) (float64, []string) {
	switch c {
	case CategoryFinancial:
		return scoreFinancial(n)
	case CategoryOperational:
		return scoreOperational(n)
	case CategoryMarket:
		return scoreMarket(n)
	case CategoryCompliance:
		return scoreCompliance(n)
	default:
		return 0, nil
	}
}

func scoreFinancial(n NormalizedRequest) (float64, []string) {
	score := financialBase
	var factors []string
	fin := n.Financial

	switch {
	case fin.ProfitMargin == nil:
		score += marginUnknownAdd
		factors = append(factors, "Profit margin not provided")
	case *fin.ProfitMargin < 0:
		score += marginNegativeAdd
		factors = append(factors, fmt.Sprintf("Negative profit margin (%.1f%%) indicates operating losses", *fin.ProfitMargin))
	case *fin.ProfitMargin < 5:
		score += marginThinAdd
		factors = append(factors, fmt.Sprintf("Thin profit margin (%.1f%%) indicates financial strain", *fin.ProfitMargin))
	case *fin.ProfitMargin < 15:
		score += marginModestAdd
		factors = append(factors, fmt.Sprintf("Modest profit margin (%.1f%%)", *fin.ProfitMargin))
	default:
		factors = append(factors, "Strong profit margins support financial health")
	}

	highLeverage := false
	switch {
	case fin.DebtToEquity == nil:
		score += leverageUnknownAdd
		factors = append(factors, "Debt-to-equity ratio not provided")
	case *fin.DebtToEquity > 2.0:
		highLeverage = true
		score += leverageHighAdd
		factors = append(factors, fmt.Sprintf("High debt-to-equity ratio (%.1f) suggests leverage risk", *fin.DebtToEquity))
	case *fin.DebtToEquity > 1.0:
		score += leverageElevatedAdd
		factors = append(factors, fmt.Sprintf("Elevated debt-to-equity ratio (%.1f)", *fin.DebtToEquity))
	case *fin.DebtToEquity > 0.5:
		score += leverageMidAdd
		factors = append(factors, fmt.Sprintf("Moderate debt-to-equity ratio (%.1f)", *fin.DebtToEquity))
	default:
		factors = append(factors, "Conservative debt levels support stability")
	}

	switch {
	case fin.CashFlow == nil && highLeverage:
		score += cashFlowUnknownHighLev
		factors = append(factors, "Operating cash flow unspecified while leverage is high")
	case fin.CashFlow == nil:
		score += cashFlowUnknownAdd
		factors = append(factors, "Operating cash flow not provided")
	case *fin.CashFlow < 0:
		score += cashFlowNegativeAdd
		factors = append(factors, "Negative operating cash flow")
	case fin.Revenue != nil && *fin.Revenue > 0 && *fin.CashFlow / *fin.Revenue < 0.05:
		score += cashFlowThinAdd
		factors = append(factors, "Low cash flow relative to revenue")
	case fin.Revenue != nil && *fin.Revenue > 0 && *fin.CashFlow / *fin.Revenue > 0.15:
		factors = append(factors, "Strong cash generation capability")
	}

	if fin.Revenue == nil {
		score += revenueUnknownAdd
		factors = append(factors, "Revenue not provided")
	}

	return clampScore(score), factors
}

func scoreOperational(n NormalizedRequest) (float64, []string) {
	score := qualitativeBase
	var factors []string

	profile := ProfileForIndustry(n.Industry)
	switch {
	case profile.Volatility > 0:
		score += profile.Volatility
		factors = append(factors, fmt.Sprintf("Industry (%s) carries inherent operational challenges", profile.Industry))
	case profile.Volatility < 0:
		score += profile.Volatility
		factors = append(factors, fmt.Sprintf("Industry (%s) typically has stable operations", profile.Industry))
	default:
		factors = append(factors, "Standard operational risk profile for industry")
	}

	switch {
	case len(n.GeographicExposure) == 0:
		score += regionUnknownAdd
		factors = append(factors, "Geographic footprint not specified")
	case len(n.GeographicExposure) > 3:
		score += regionBreadthAdd
		factors = append(factors, "Broad multi-region operating footprint increases coordination complexity")
	}

	score += keywordContribution(n.AdditionalContext, operationalKeywords, keywordAdd, keywordCap, &factors)
	return clampScore(score), factors
}

func scoreMarket(n NormalizedRequest) (float64, []string) {
	score := qualitativeBase
	var factors []string

	highRisk, stable := regionExposure(n.GeographicExposure)
	switch {
	case len(n.GeographicExposure) == 0:
		score += regionUnknownAdd
		factors = append(factors, "Geographic exposure not specified")
	default:
		if highRisk {
			score += regionHighRiskAdd
			factors = append(factors, "Exposure to higher-risk geographic markets")
		}
		if stable {
			score -= regionStableRelief
			factors = append(factors, "Operations in stable geographic markets")
		}
		if !highRisk && !stable {
			factors = append(factors, "Standard geographic risk profile")
		}
	}

	profile := ProfileForIndustry(n.Industry)
	if profile.Volatility > 0 {
		score += profile.Volatility / 2
		factors = append(factors, fmt.Sprintf("Volatile industry (%s) amplifies market swings", profile.Industry))
	}

	score += keywordContribution(n.AdditionalContext, marketKeywords, keywordAdd, keywordCap, &factors)
	return clampScore(score), factors
}

func scoreCompliance(n NormalizedRequest) (float64, []string) {
	score := complianceBase
	var factors []string

	if isRegulatedEntity(n) {
		score += regulatedEntityAdd
		factors = append(factors, fmt.Sprintf("Entity type (%s) is subject to significant regulation", n.EntityType))
	} else {
		factors = append(factors, "Standard regulatory compliance requirements")
	}

	profile := ProfileForIndustry(n.Industry)
	if profile.RegulatoryBurden > 0 {
		score += profile.RegulatoryBurden
		factors = append(factors, fmt.Sprintf("Industry (%s) carries elevated regulatory burden", profile.Industry))
	}

	if len(n.GeographicExposure) >= 2 {
		score += crossBorderAdd
		factors = append(factors, "Cross-border operations add regulatory complexity")
	}

	score += keywordContribution(n.AdditionalContext, complianceKeywords, complianceKwAdd, complianceKwCap, &factors)
	return clampScore(score), factors
}

// keywordContribution adds one fixed increment per matched keyword group,
// capped, and appends the group labels as contributing factors.
func keywordContribution(context string, groups map[string][]string, add, limit float64, factors *[]string) float64 {
	matched := matchKeywordGroups(context, groups)
	total := 0.0
	for _, label := range matched {
		total += add
		*factors = append(*factors, "Context mentions "+label)
	}
	if total > limit {
		total = limit
	}
	return total
}

// clampScore pins a raw rule sum into the closed [0,2] impact range and
// rounds away float accumulation noise.
func clampScore(s float64) float64 {
	if s < 0 {
		s = 0
	}
	if s > 2 {
		s = 2
	}
	return math.Round(s*100) / 100
}
