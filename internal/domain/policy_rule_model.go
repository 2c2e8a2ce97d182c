package domain

import "time"

// Policy rule actions. Annotate-only rules leave the computed verdict intact.
const (
	RuleActionOverrideGrade      = "override_grade"
	RuleActionOverrideMultiplier = "override_multiplier"
	RuleActionAnnotate           = "annotate"
)

// PolicyRule is a persisted declarative override. Priority is ascending:
// lower numbers are evaluated first and the first match wins. The condition
// tree is stored as JSON and decoded by the policy engine.
type PolicyRule struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	Name             string `gorm:"size:128;not null"`
	Priority         int    `gorm:"not null;index"`
	Enabled          bool   `gorm:"not null;default:true"`
	Condition        []byte `gorm:"type:jsonb;not null"`
	Action           string `gorm:"size:32;not null"`
	ActionGrade      string `gorm:"size:2"`
	ActionMultiplier float64
	Annotation       string `gorm:"size:256"`

	AppliedCount  uint64 `gorm:"not null;default:0"`
	LastAppliedAt *time.Time

	ConfigVersion uint32    `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}
