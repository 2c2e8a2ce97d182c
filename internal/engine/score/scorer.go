package score

import (
	"sort"

	"shrike/internal/domain"
)

// Result is the outcome of scoring one checklist. ActiveMaxScore always
// equals the summed max points of the checks that actually contributed, so
// disabling a check shrinks the denominator by exactly its max points.
type Result struct {
	BaseScore        float64
	ActiveMaxScore   float64
	Percentage       float64 // 0-1
	PerCategory      []domain.CategoryScore
	ZeroActiveChecks bool
}

// Score applies the category-weighted checklist. Only enabled checks count;
// a category explicitly configured with weight <= 0 is treated as switched
// off and excluded from both numerator and denominator. No I/O happens here.
func Score(checks []domain.CheckResult, categoryWeights map[string]float64) Result {
	perCategory := make(map[string]*domain.CategoryScore)

	var base, activeMax float64
	for _, check := range checks {
		if !check.Enabled {
			continue
		}
		if !categoryEnabled(check.Category, categoryWeights) {
			continue
		}

		base += check.Points
		activeMax += check.MaxPoints

		cat, ok := perCategory[check.Category]
		if !ok {
			cat = &domain.CategoryScore{Category: check.Category}
			perCategory[check.Category] = cat
		}
		cat.Score += check.Points
		cat.MaxWeight += check.MaxPoints
	}

	result := Result{
		BaseScore:      base,
		ActiveMaxScore: activeMax,
	}

	if activeMax <= 0 {
		result.ZeroActiveChecks = true
		result.PerCategory = []domain.CategoryScore{}
		return result
	}

	result.Percentage = clamp01(base / activeMax)

	categories := make([]domain.CategoryScore, 0, len(perCategory))
	for _, cat := range perCategory {
		if cat.MaxWeight > 0 {
			cat.Percentage = clamp01(cat.Score / cat.MaxWeight)
		}
		categories = append(categories, *cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})
	result.PerCategory = categories

	return result
}

func categoryEnabled(category string, weights map[string]float64) bool {
	if len(weights) == 0 {
		return true
	}
	weight, configured := weights[category]
	if !configured {
		return true
	}
	return weight > 0
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
