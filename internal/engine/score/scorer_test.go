package score

import (
	"math"
	"testing"

	"shrike/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreSumsEnabledChecks(t *testing.T) {
	checks := []domain.CheckResult{
		{ID: "domain-age", Category: "domain", Points: 30, MaxPoints: 60, Enabled: true},
		{ID: "login-form", Category: "content", Points: 10, MaxPoints: 90, Enabled: true},
		{ID: "asn-reputation", Category: "infrastructure", Points: 25, MaxPoints: 50, Enabled: true},
	}

	result := Score(checks, nil)

	if !almostEqual(result.BaseScore, 65) {
		t.Fatalf("BaseScore = %v, want %v", result.BaseScore, 65.0)
	}
	if !almostEqual(result.ActiveMaxScore, 200) {
		t.Fatalf("ActiveMaxScore = %v, want %v", result.ActiveMaxScore, 200.0)
	}
	if !almostEqual(result.Percentage, 65.0/200.0) {
		t.Fatalf("Percentage = %v, want %v", result.Percentage, 65.0/200.0)
	}
	if result.ZeroActiveChecks {
		t.Fatal("ZeroActiveChecks = true, want false")
	}
}

func TestScoreDisabledCheckShrinksDenominator(t *testing.T) {
	checks := []domain.CheckResult{
		{ID: "a", Category: "domain", Points: 30, MaxPoints: 60, Enabled: true},
		{ID: "b", Category: "content", Points: 10, MaxPoints: 90, Enabled: true},
	}

	full := Score(checks, nil)

	checks[1].Enabled = false
	reduced := Score(checks, nil)

	if !almostEqual(reduced.ActiveMaxScore, full.ActiveMaxScore-90) {
		t.Fatalf("ActiveMaxScore = %v, want %v", reduced.ActiveMaxScore, full.ActiveMaxScore-90)
	}
	if !almostEqual(reduced.BaseScore, 30) {
		t.Fatalf("BaseScore = %v, want %v", reduced.BaseScore, 30.0)
	}
	if !almostEqual(reduced.Percentage, 0.5) {
		t.Fatalf("Percentage = %v, want %v", reduced.Percentage, 0.5)
	}
}

func TestScoreZeroWeightDisablesCategory(t *testing.T) {
	checks := []domain.CheckResult{
		{ID: "a", Category: "domain", Points: 30, MaxPoints: 60, Enabled: true},
		{ID: "b", Category: "content", Points: 45, MaxPoints: 90, Enabled: true},
	}
	weights := map[string]float64{"domain": 60, "content": 0}

	result := Score(checks, weights)

	if !almostEqual(result.BaseScore, 30) {
		t.Fatalf("BaseScore = %v, want %v", result.BaseScore, 30.0)
	}
	if !almostEqual(result.ActiveMaxScore, 60) {
		t.Fatalf("ActiveMaxScore = %v, want %v", result.ActiveMaxScore, 60.0)
	}
	if len(result.PerCategory) != 1 || result.PerCategory[0].Category != "domain" {
		t.Fatalf("PerCategory = %v, want only domain", result.PerCategory)
	}
}

func TestScoreUnconfiguredCategoryStillCounts(t *testing.T) {
	checks := []domain.CheckResult{
		{ID: "a", Category: "behavior", Points: 20, MaxPoints: 80, Enabled: true},
	}
	weights := map[string]float64{"domain": 60}

	result := Score(checks, weights)

	if !almostEqual(result.BaseScore, 20) {
		t.Fatalf("BaseScore = %v, want %v", result.BaseScore, 20.0)
	}
	if result.ZeroActiveChecks {
		t.Fatal("ZeroActiveChecks = true, want false")
	}
}

func TestScoreNoEnabledChecks(t *testing.T) {
	checks := []domain.CheckResult{
		{ID: "a", Category: "domain", Points: 30, MaxPoints: 60, Enabled: false},
	}

	result := Score(checks, nil)

	if !result.ZeroActiveChecks {
		t.Fatal("ZeroActiveChecks = false, want true")
	}
	if !almostEqual(result.Percentage, 0) {
		t.Fatalf("Percentage = %v, want 0", result.Percentage)
	}
}

func TestScorePerCategoryIsSortedAndBounded(t *testing.T) {
	checks := []domain.CheckResult{
		{ID: "a", Category: "reputation", Points: 10, MaxPoints: 70, Enabled: true},
		{ID: "b", Category: "content", Points: 90, MaxPoints: 90, Enabled: true},
		{ID: "c", Category: "domain", Points: 15, MaxPoints: 60, Enabled: true},
	}

	result := Score(checks, nil)

	want := []string{"content", "domain", "reputation"}
	if len(result.PerCategory) != len(want) {
		t.Fatalf("PerCategory count = %d, want %d", len(result.PerCategory), len(want))
	}
	for i, cat := range result.PerCategory {
		if cat.Category != want[i] {
			t.Fatalf("PerCategory[%d] = %s, want %s", i, cat.Category, want[i])
		}
		if cat.Percentage < 0 || cat.Percentage > 1 {
			t.Fatalf("category %s percentage %v outside [0,1]", cat.Category, cat.Percentage)
		}
	}
}
