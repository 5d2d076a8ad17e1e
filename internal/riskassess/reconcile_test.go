package riskassess

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func twoCategoryInput() (NormalizedRequest, map[Category]categoryScore) {
	n := NormalizedRequest{
		EntityName: "Acme Corp",
		EntityType: EntityCompany,
		Scope:      []Category{CategoryFinancial, CategoryCompliance},
	}
	per := map[Category]categoryScore{
		CategoryFinancial:  {Score: 1.8, Level: RiskCritical, Factors: []string{"Negative operating cash flow"}},
		CategoryCompliance: {Score: 0.5, Level: RiskLow, Factors: []string{"Standard regulatory compliance requirements"}},
	}
	return n, per
}

func TestReconcileCompleteModeMergesNarrative(t *testing.T) {
	n, per := twoCategoryInput()
	nr := &Narrative{
		Categories: map[Category]categoryNarrative{
			CategoryFinancial: {
				RiskLevel:   RiskHigh, // provider disagrees; numbers must win
				Description: "Severe liquidity strain driven by sustained losses.",
				Factors:     []string{"negative operating cash flow", "Vendor payment delays reported"},
			},
			CategoryCompliance: {RiskLevel: RiskLow, Description: "No open regulatory matters.", Factors: nil},
		},
		Recommendations: []string{" Secure bridge financing. ", "Cut discretionary spend."},
		Summary:         "Critical financial risk dominates the profile.",
	}

	out := Reconcile(n, per, RiskCritical, 0.85, nr, testNow)

	if out.Mode != ModeComplete {
		t.Fatalf("mode = %s, want COMPLETE", out.Mode)
	}
	if out.OverallRiskLevel != RiskCritical {
		t.Fatalf("overall level: %s", out.OverallRiskLevel)
	}
	fin := out.RiskFactors[0]
	if fin.Category != CategoryFinancial || fin.RiskLevel != RiskCritical || fin.ImpactScore != 1.8 {
		t.Fatalf("deterministic numbers must take precedence: %+v", fin)
	}
	if fin.Description != "Severe liquidity strain driven by sustained losses." {
		t.Fatalf("narrative description should be adopted: %q", fin.Description)
	}
	// deterministic factor first, case-insensitive duplicate dropped, new one appended
	if len(fin.ContributingFactors) != 2 ||
		fin.ContributingFactors[0] != "Negative operating cash flow" ||
		fin.ContributingFactors[1] != "Vendor payment delays reported" {
		t.Fatalf("factor merge wrong: %v", fin.ContributingFactors)
	}
	if out.Recommendations[0] != "Secure bridge financing." {
		t.Fatalf("recommendations should be trimmed: %v", out.Recommendations)
	}
	if out.Summary != "Critical financial risk dominates the profile." {
		t.Fatalf("summary: %q", out.Summary)
	}
}

func TestReconcileFallbackModeUsesTemplates(t *testing.T) {
	n, per := twoCategoryInput()
	out := Reconcile(n, per, RiskCritical, 0.6, nil, testNow)

	if out.Mode != ModeFallback {
		t.Fatalf("mode = %s, want FALLBACK", out.Mode)
	}
	if !strings.Contains(out.Summary, "Acme Corp") || !strings.Contains(out.Summary, "CRITICAL") {
		t.Fatalf("template summary should name entity and level: %q", out.Summary)
	}
	if !strings.Contains(out.Summary, "financial") {
		t.Fatalf("template summary should call out elevated categories: %q", out.Summary)
	}
	if len(out.Recommendations) < 2 {
		t.Fatalf("fallback should still recommend actions: %v", out.Recommendations)
	}
	for _, rf := range out.RiskFactors {
		if rf.Description == "" {
			t.Fatalf("every factor needs a description in fallback mode: %+v", rf)
		}
	}
}

func TestReconcileRecordFields(t *testing.T) {
	n, per := twoCategoryInput()
	n.RequestedBy = "analyst@example.com"
	out := Reconcile(n, per, RiskCritical, 0.6, nil, testNow)

	if out.AssessmentID == "" {
		t.Fatal("assessment id must be set")
	}
	if out.MethodologyVersion != MethodologyVersion {
		t.Fatalf("methodology version: %q", out.MethodologyVersion)
	}
	if !out.AssessmentDate.Equal(testNow) {
		t.Fatalf("assessment date: %v", out.AssessmentDate)
	}
	if out.RequestedBy != "analyst@example.com" {
		t.Fatalf("requested_by: %q", out.RequestedBy)
	}
	if len(out.RiskFactors) != 2 || out.RiskFactors[0].Category != CategoryFinancial {
		t.Fatalf("factors should follow scope order: %+v", out.RiskFactors)
	}

	again := Reconcile(n, per, RiskCritical, 0.6, nil, testNow)
	if again.AssessmentID == out.AssessmentID {
		t.Fatal("each record needs a fresh assessment id")
	}
}
