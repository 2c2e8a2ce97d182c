package dto

import (
	"shrike/internal/domain"
	"shrike/internal/engine/calibrate"
)

type CalibrationRequest struct {
	Branch  string                     `json:"branch"`
	Samples []domain.CalibrationSample `json:"samples"`
}

type CalibrationResponse struct {
	Branch           string              `json:"branch"`
	OptimalThreshold float64             `json:"optimal_threshold"`
	Recommended      domain.ThresholdSet `json:"recommended"`
	Metrics          calibrate.Metrics   `json:"metrics"`
	SampleCount      int                 `json:"sample_count"`
	RunID            uint64              `json:"run_id,omitempty"`
}
