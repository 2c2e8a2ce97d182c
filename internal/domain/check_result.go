package domain

// CheckResult is one checklist item produced by the category checks upstream.
// The scorer consumes these read-only.
type CheckResult struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Severity  string  `json:"severity"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
	Enabled   bool    `json:"enabled"`
	Message   string  `json:"message,omitempty"`
}

// CategoryScore aggregates the enabled checks of one category. It only lives
// for the duration of a single evaluation.
type CategoryScore struct {
	Category   string  `json:"category"`
	Score      float64 `json:"score"`
	MaxWeight  float64 `json:"max_weight"`
	Percentage float64 `json:"percentage"`
}
