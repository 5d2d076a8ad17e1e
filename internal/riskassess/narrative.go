package riskassess

import (
	"fmt"
	"sort"
	"strings"
)

// buildNarrativePrompt assembles the single comprehensive prompt sent to the
// provider. The deterministic scores are included as anchors: the provider
// explains and extends them, it does not renegotiate them.
func buildNarrativePrompt(n NormalizedRequest, scores map[Category]float64, levels map[Category]RiskLevel) string {
	var b strings.Builder

	b.WriteString("Analyze the risk profile of the following business entity.\n\n")
	fmt.Fprintf(&b, "Entity: %s\n", n.EntityName)
	fmt.Fprintf(&b, "Entity type: %s\n", n.EntityType)
	if n.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", n.Industry)
	}
	if len(n.GeographicExposure) > 0 {
		fmt.Fprintf(&b, "Geographic exposure: %s\n", strings.Join(n.GeographicExposure, ", "))
	}

	fin := n.Financial
	var finLines []string
	if fin.Revenue != nil {
		finLines = append(finLines, fmt.Sprintf("annual revenue %.0f", *fin.Revenue))
	}
	if fin.ProfitMargin != nil {
		finLines = append(finLines, fmt.Sprintf("profit margin %.1f%%", *fin.ProfitMargin))
	}
	if fin.DebtToEquity != nil {
		finLines = append(finLines, fmt.Sprintf("debt-to-equity %.2f", *fin.DebtToEquity))
	}
	if fin.CashFlow != nil {
		finLines = append(finLines, fmt.Sprintf("operating cash flow %.0f", *fin.CashFlow))
	}
	if len(finLines) > 0 {
		fmt.Fprintf(&b, "Financial data: %s\n", strings.Join(finLines, "; "))
	}
	if n.AdditionalContext != "" {
		fmt.Fprintf(&b, "\nAdditional context:\n%s\n", n.AdditionalContext)
	}

	b.WriteString("\nA deterministic rules engine has already scored this entity. Treat these as ground truth anchors:\n")
	for _, c := range n.Scope {
		fmt.Fprintf(&b, "- %s: impact %.2f (%s)\n", c, scores[c], levels[c])
	}

	b.WriteString("\nFor each scored category provide a risk narrative. Respond with JSON of this exact shape:\n")
	b.WriteString(`{
  "categories": {
    "<category>": {
      "risk_level": "LOW|MEDIUM|HIGH|CRITICAL",
      "description": "2-3 sentence analysis",
      "factors": ["specific contributing factor", "..."]
    }
  },
  "recommendations": ["actionable risk mitigation step", "..."],
  "summary": "executive summary of the overall risk posture"
}`)
	fmt.Fprintf(&b, "\nCover exactly these categories: %s.\n", joinCategories(n.Scope))
	b.WriteString("Give between two and five recommendations.")

	return b.String()
}

func joinCategories(scope []Category) string {
	names := make([]string, len(scope))
	for i, c := range scope {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// validateNarrative checks a decoded provider reply against the scoped
// categories. Extra categories outside the scope are tolerated and ignored
// downstream; missing scoped categories are not.
func validateNarrative(nr *Narrative, scope []Category) error {
	if len(nr.Categories) == 0 {
		return fmt.Errorf("reply has no categories")
	}
	var problems []string
	for _, c := range scope {
		cn, ok := nr.Categories[c]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing category %q", c))
			continue
		}
		if !validRiskLevel(cn.RiskLevel) {
			problems = append(problems, fmt.Sprintf("category %q has invalid risk_level %q", c, cn.RiskLevel))
		}
		if strings.TrimSpace(cn.Description) == "" {
			problems = append(problems, fmt.Sprintf("category %q has empty description", c))
		}
	}
	for c := range nr.Categories {
		if !validCategory(c) {
			problems = append(problems, fmt.Sprintf("unknown category %q", c))
		}
	}
	if strings.TrimSpace(nr.Summary) == "" {
		problems = append(problems, "empty summary")
	}
	if len(nr.Recommendations) == 0 {
		problems = append(problems, "no recommendations")
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
