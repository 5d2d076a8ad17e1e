package riskassess

import (
	"reflect"
	"testing"
)

func healthyFinancials() NormalizedRequest {
	return NormalizedRequest{
		EntityName: "Sound Manufacturing Inc",
		EntityType: EntityCompany,
		Industry:   "manufacturing",
		Financial: FinancialSnapshot{
			Revenue:      fp(10_000_000),
			ProfitMargin: fp(15.5),
			DebtToEquity: fp(0.3),
			CashFlow:     fp(2_000_000),
		},
		Scope: AllCategories,
	}
}

func TestScoreFinancialHealthyEntityIsLow(t *testing.T) {
	score, factors := scoreFinancial(healthyFinancials())
	if score != 0.2 {
		t.Fatalf("healthy financials should score the baseline, got %v", score)
	}
	if bucketLevel(score) != RiskLow {
		t.Fatalf("healthy financials should bucket LOW, got %s", bucketLevel(score))
	}
	if len(factors) == 0 {
		t.Fatal("expected positive contributing factors")
	}
}

func TestScoreFinancialDistressedEntityIsCritical(t *testing.T) {
	n := NormalizedRequest{
		EntityName: "Distressed Holdings",
		EntityType: EntityCompany,
		Financial: FinancialSnapshot{
			ProfitMargin: fp(-5),
			DebtToEquity: fp(3.0),
			CashFlow:     fp(-500_000),
		},
		Scope: []Category{CategoryFinancial},
	}
	score, factors := scoreFinancial(n)
	if score != 1.95 {
		t.Fatalf("distressed financials score: got %v, want 1.95", score)
	}
	if bucketLevel(score) != RiskCritical {
		t.Fatalf("distressed financials should bucket CRITICAL, got %s", bucketLevel(score))
	}
	if len(factors) < 3 {
		t.Fatalf("expected factors for margin, leverage, and cash flow: %v", factors)
	}
}

func TestScoreFinancialMissingDataRaisesScore(t *testing.T) {
	bare := NormalizedRequest{EntityName: "Opaque LLC", Scope: []Category{CategoryFinancial}}
	score, _ := scoreFinancial(bare)
	full, _ := scoreFinancial(healthyFinancials())
	if score <= full {
		t.Fatalf("absent financials (%v) should score above healthy financials (%v)", score, full)
	}
	// baseline + unknown margin, leverage, cash flow, revenue
	if score != 0.95 {
		t.Fatalf("all-unknown financial score: got %v, want 0.95", score)
	}
}

func TestScoreCategoryDeterministic(t *testing.T) {
	n := NormalizedRequest{
		EntityName:         "Repeat Corp",
		Industry:           "cryptocurrency",
		GeographicExposure: []string{"Brazil", "Germany", "Japan", "India"},
		AdditionalContext:  "facing an sec investigation and supply chain disruption",
		Scope:              AllCategories,
	}
	for _, c := range AllCategories {
		s1, f1 := ScoreCategory(c, n)
		for i := 0; i < 20; i++ {
			s2, f2 := ScoreCategory(c, n)
			if s1 != s2 || !reflect.DeepEqual(f1, f2) {
				t.Fatalf("%s scorer is not deterministic: (%v,%v) vs (%v,%v)", c, s1, f1, s2, f2)
			}
		}
	}
}

func TestScoreOperationalVolatileIndustry(t *testing.T) {
	volatile := NormalizedRequest{EntityName: "A", Industry: "cryptocurrency", GeographicExposure: []string{"USA"}}
	calm := NormalizedRequest{EntityName: "A", Industry: "utilities", GeographicExposure: []string{"USA"}}
	sv, _ := scoreOperational(volatile)
	sc, _ := scoreOperational(calm)
	if sv <= sc {
		t.Fatalf("volatile industry (%v) should outscore stable industry (%v)", sv, sc)
	}
}

func TestScoreOperationalUnknownIndustryUsesDefaultProfile(t *testing.T) {
	odd := NormalizedRequest{EntityName: "A", Industry: "artisanal basket weaving", GeographicExposure: []string{"USA"}}
	blank := NormalizedRequest{EntityName: "A", GeographicExposure: []string{"USA"}}
	so, _ := scoreOperational(odd)
	sb, _ := scoreOperational(blank)
	if so != sb {
		t.Fatalf("unrecognized industry should score like the default profile: %v vs %v", so, sb)
	}
}

func TestScoreMarketRegionAdjustments(t *testing.T) {
	risky := NormalizedRequest{EntityName: "A", GeographicExposure: []string{"Emerging Markets - LATAM"}}
	stable := NormalizedRequest{EntityName: "A", GeographicExposure: []string{"Western Europe"}}
	sr, _ := scoreMarket(risky)
	ss, _ := scoreMarket(stable)
	if sr <= ss {
		t.Fatalf("high-risk region (%v) should outscore stable region (%v)", sr, ss)
	}
	if ss >= qualitativeBase {
		t.Fatalf("stable region should relieve the baseline, got %v", ss)
	}
}

func TestScoreComplianceRegulatedEntity(t *testing.T) {
	bank := NormalizedRequest{EntityName: "First National Bank", Industry: "banking", Scope: AllCategories}
	shop := NormalizedRequest{EntityName: "Corner Coffee", Industry: "retail", Scope: AllCategories}
	sb, factors := scoreCompliance(bank)
	ss, _ := scoreCompliance(shop)
	if sb <= ss {
		t.Fatalf("regulated entity (%v) should outscore unregulated (%v)", sb, ss)
	}
	if len(factors) == 0 {
		t.Fatal("expected compliance factors")
	}
}

func TestKeywordContributionIsCapped(t *testing.T) {
	n := NormalizedRequest{
		EntityName:        "A",
		AdditionalContext: "lawsuit litigation regulatory investigation data breach sanctions non-compliance violation fine penalty",
	}
	withKw, _ := scoreCompliance(n)
	without, _ := scoreCompliance(NormalizedRequest{EntityName: "A"})
	if withKw-without > complianceKwCap+1e-9 {
		t.Fatalf("keyword contribution exceeded cap: %v vs %v", withKw, without)
	}
}

func TestScoresStayInRange(t *testing.T) {
	worst := NormalizedRequest{
		EntityName:         "Worst Case Oil Exploration Bank",
		EntityType:         EntityCompany,
		Industry:           "cryptocurrency",
		GeographicExposure: []string{"Middle East", "Eastern Europe", "LATAM", "Africa", "Emerging Markets"},
		Financial: FinancialSnapshot{
			ProfitMargin: fp(-50),
			DebtToEquity: fp(9),
			CashFlow:     fp(-1_000_000),
		},
		AdditionalContext: "lawsuit investigation recession downturn layoffs supply chain disruption data breach sanctions",
		Scope:             AllCategories,
	}
	for _, c := range AllCategories {
		s, _ := ScoreCategory(c, worst)
		if s < 0 || s > 2 {
			t.Fatalf("%s score out of [0,2]: %v", c, s)
		}
	}
}
