package domain

import "time"

// BranchThreshold is the persisted threshold set for one branch at one
// configuration version. The highest version per branch is the live one.
type BranchThreshold struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	Branch        string    `gorm:"size:16;not null;uniqueIndex:idx_branch_thresholds_branch_version,priority:1"`
	ConfigVersion uint32    `gorm:"not null;uniqueIndex:idx_branch_thresholds_branch_version,priority:2"`
	Safe          float64   `gorm:"type:numeric(6,5);not null"`
	Low           float64   `gorm:"type:numeric(6,5);not null"`
	Medium        float64   `gorm:"type:numeric(6,5);not null"`
	High          float64   `gorm:"type:numeric(6,5);not null"`
	Critical      float64   `gorm:"type:numeric(6,5);not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// Set converts the row into the value type the mapper consumes.
func (bt BranchThreshold) Set() ThresholdSet {
	return ThresholdSet{
		Safe:     bt.Safe,
		Low:      bt.Low,
		Medium:   bt.Medium,
		High:     bt.High,
		Critical: bt.Critical,
	}
}
