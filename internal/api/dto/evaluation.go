package dto

import "shrike/internal/domain"

// EvaluationRequest is the inbound payload for one engine evaluation.
// CategoryWeights may be omitted to use the configured defaults.
type EvaluationRequest struct {
	Context         domain.ScanContext   `json:"context"`
	Checks          []domain.CheckResult `json:"checks"`
	CategoryWeights map[string]float64   `json:"category_weights,omitempty"`
}
