package domain

import "time"

// Ground-truth labels accepted by the calibration endpoint.
const (
	CalibrationLabelSafe      = "safe"
	CalibrationLabelMalicious = "malicious"
)

// CalibrationSample pairs a historical risk probability with its ground
// truth. Samples are ephemeral; only the resulting run is persisted.
type CalibrationSample struct {
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
}

// CalibrationRun records one offline calibration for audit. It is a
// recommendation only; applying it to live thresholds is a separate
// administrative action.
type CalibrationRun struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Branch      string `gorm:"size:16;not null;index"`
	SampleCount int    `gorm:"not null"`

	RecommendedSafe     float64 `gorm:"type:numeric(6,5);not null"`
	RecommendedLow      float64 `gorm:"type:numeric(6,5);not null"`
	RecommendedMedium   float64 `gorm:"type:numeric(6,5);not null"`
	RecommendedHigh     float64 `gorm:"type:numeric(6,5);not null"`
	RecommendedCritical float64 `gorm:"type:numeric(6,5);not null"`

	Accuracy          float64 `gorm:"type:numeric(6,5);not null"`
	Precision         float64 `gorm:"type:numeric(6,5);not null"`
	Recall            float64 `gorm:"type:numeric(6,5);not null"`
	F1                float64 `gorm:"type:numeric(6,5);not null"`
	FalsePositiveRate float64 `gorm:"type:numeric(6,5);not null"`
	FalseNegativeRate float64 `gorm:"type:numeric(6,5);not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
