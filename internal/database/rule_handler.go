package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"shrike/internal/domain"
)

// RuleApplicationDelta accumulates live matches of one rule between flushes.
type RuleApplicationDelta struct {
	RuleID        uint64
	Count         uint64
	LastAppliedAt time.Time
}

// GetPolicyRulesByPriority returns all rules ordered the way the engine
// evaluates them: ascending priority, ID as the tiebreaker.
func GetPolicyRulesByPriority() ([]domain.PolicyRule, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialised")
	}

	var rules []domain.PolicyRule
	if err := DB.Order("priority ASC, id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// GetPolicyRule loads a single rule by ID.
func GetPolicyRule(id uint64) (domain.PolicyRule, error) {
	if DB == nil {
		return domain.PolicyRule{}, fmt.Errorf("database not initialised")
	}

	var rule domain.PolicyRule
	if err := DB.First(&rule, id).Error; err != nil {
		return domain.PolicyRule{}, err
	}
	return rule, nil
}

// ApplyRuleApplicationDeltas folds buffered live-match counts into the rule
// rows. Increments are additive so concurrent instances cannot lose counts
// to read-modify-write races.
func ApplyRuleApplicationDeltas(ctx context.Context, deltas []RuleApplicationDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	if DB == nil {
		return fmt.Errorf("database not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, delta := range deltas {
			err := tx.Model(&domain.PolicyRule{}).
				Where("id = ?", delta.RuleID).
				Updates(map[string]any{
					"applied_count":   gorm.Expr("applied_count + ?", delta.Count),
					"last_applied_at": delta.LastAppliedAt,
				}).Error
			if err != nil {
				return fmt.Errorf("apply rule delta %d: %w", delta.RuleID, err)
			}
		}
		return nil
	})
}
