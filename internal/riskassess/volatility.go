package riskassess

import (
	"sort"
	"strings"
)

// IndustryProfile carries the per-industry adjustments the qualitative
// scorers apply. Volatility and RegulatoryBurden are additive impact deltas.
type IndustryProfile struct {
	Industry         string
	Volatility       float64
	RegulatoryBurden float64
}

// DefaultIndustryProfiles is keyed by a substring matched against the
// normalized (lowercased) industry string, so "Oil & Gas Exploration" hits
// the "oil" entry.
var DefaultIndustryProfiles = map[string]IndustryProfile{
	"cryptocurrency": {Industry: "cryptocurrency", Volatility: 0.50, RegulatoryBurden: 0.40},
	"oil":            {Industry: "oil", Volatility: 0.50, RegulatoryBurden: 0.30},
	"mining":         {Industry: "mining", Volatility: 0.50, RegulatoryBurden: 0.30},
	"airlines":       {Industry: "airlines", Volatility: 0.50, RegulatoryBurden: 0.20},
	"hospitality":    {Industry: "hospitality", Volatility: 0.50, RegulatoryBurden: 0.00},
	"biotech":        {Industry: "biotech", Volatility: 0.35, RegulatoryBurden: 0.40},
	"pharmaceutical": {Industry: "pharmaceutical", Volatility: 0.25, RegulatoryBurden: 0.50},
	"bank":           {Industry: "bank", Volatility: 0.15, RegulatoryBurden: 0.50},
	"financial":      {Industry: "financial", Volatility: 0.15, RegulatoryBurden: 0.50},
	"insurance":      {Industry: "insurance", Volatility: 0.10, RegulatoryBurden: 0.40},
	"energy":         {Industry: "energy", Volatility: 0.25, RegulatoryBurden: 0.40},
	"medical":        {Industry: "medical", Volatility: 0.10, RegulatoryBurden: 0.45},
	"utilities":      {Industry: "utilities", Volatility: -0.25, RegulatoryBurden: 0.25},
	"healthcare":     {Industry: "healthcare", Volatility: -0.25, RegulatoryBurden: 0.35},
	"education":      {Industry: "education", Volatility: -0.25, RegulatoryBurden: 0.05},
	"government":     {Industry: "government", Volatility: -0.25, RegulatoryBurden: 0.10},
	"default":        {Industry: "default", Volatility: 0.00, RegulatoryBurden: 0.00},
}

// ProfileForIndustry resolves a normalized industry string to its profile,
// falling back to the documented neutral default when no entry matches.
func ProfileForIndustry(industry string) IndustryProfile {
	industry = strings.ToLower(strings.TrimSpace(industry))
	if industry == "" {
		return DefaultIndustryProfiles["default"]
	}
	if p, ok := DefaultIndustryProfiles[industry]; ok {
		return p
	}
	keys := make([]string, 0, len(DefaultIndustryProfiles))
	for k := range DefaultIndustryProfiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key != "default" && strings.Contains(industry, key) {
			return DefaultIndustryProfiles[key]
		}
	}
	return DefaultIndustryProfiles["default"]
}

// Region labels are matched as lowercase substrings of the whole exposure
// list, mirroring how analysts tag filings ("Emerging Markets - LATAM").
var (
	highRiskRegions = []string{"emerging markets", "middle east", "africa", "eastern europe", "latam"}
	stableRegions   = []string{"north america", "western europe", "australia", "japan"}
)

func regionExposure(regions []string) (highRisk, stable bool) {
	joined := strings.ToLower(strings.Join(regions, " "))
	for _, r := range highRiskRegions {
		if strings.Contains(joined, r) {
			highRisk = true
			break
		}
	}
	for _, r := range stableRegions {
		if strings.Contains(joined, r) {
			stable = true
			break
		}
	}
	return highRisk, stable
}

// Context keyword groups. Each matched group contributes one fixed increment
// to its scorer; repeats of the same group do not stack.
var (
	operationalKeywords = map[string][]string{
		"supply chain disruption signals": {"supply chain", "supplier", "shortage"},
		"technology and security signals": {"cyberattack", "breach", "outage", "ransomware"},
		"workforce instability signals":   {"turnover", "strike", "layoff", "attrition"},
	}
	marketKeywords = map[string][]string{
		"competitive pressure signals": {"competition", "competitor", "price war", "market share loss"},
		"demand contraction signals":   {"downturn", "recession", "declining demand", "disruption"},
	}
	complianceKeywords = map[string][]string{
		"regulatory scrutiny signals":  {"regulatory", "regulation", "compliance"},
		"active legal matters":         {"litigation", "lawsuit", "investigation", "subpoena"},
		"sanctions exposure":           {"sanction", "embargo", "export control"},
		"data protection obligations":  {"gdpr", "ccpa", "data privacy", "data protection"},
		"financial reporting concerns": {"restatement", "audit finding", "material weakness"},
	}
)

// matchKeywordGroups returns the labels of every group with at least one
// keyword present in the context, in deterministic (sorted-key) order.
func matchKeywordGroups(context string, groups map[string][]string) []string {
	if strings.TrimSpace(context) == "" {
		return nil
	}
	lowered := strings.ToLower(context)
	labels := sortedKeys(groups)
	var matched []string
	for _, label := range labels {
		for _, kw := range groups[label] {
			if strings.Contains(lowered, kw) {
				matched = append(matched, label)
				break
			}
		}
	}
	return matched
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Regulated entity/industry markers used by the compliance scorer.
var regulatedEntityMarkers = []string{"bank", "financial", "pharmaceutical", "medical", "energy", "insurance"}

func isRegulatedEntity(n NormalizedRequest) bool {
	probe := strings.ToLower(string(n.EntityType) + " " + n.Industry)
	for _, m := range regulatedEntityMarkers {
		if strings.Contains(probe, m) {
			return true
		}
	}
	return false
}
