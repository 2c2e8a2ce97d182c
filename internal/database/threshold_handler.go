package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shrike/internal/domain"
	"shrike/internal/engine/grade"
)

// ErrBranchNotConfigured is returned when no threshold set exists for a
// branch. Callers decide whether that is fatal or worth a fallback branch.
var ErrBranchNotConfigured = errors.New("database: no threshold set for branch")

// GetBranchThresholds returns the live (highest version) threshold set for
// one branch.
func GetBranchThresholds(branch string) (domain.BranchThreshold, error) {
	if DB == nil {
		return domain.BranchThreshold{}, fmt.Errorf("database not initialised")
	}

	var row domain.BranchThreshold
	err := DB.
		Where("branch = ?", branch).
		Order("config_version DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.BranchThreshold{}, fmt.Errorf("%w: %s", ErrBranchNotConfigured, branch)
	}
	if err != nil {
		return domain.BranchThreshold{}, err
	}
	return row, nil
}

// GetAllBranchThresholds returns the live threshold set of every configured
// branch, keyed by branch name.
func GetAllBranchThresholds() (map[string]domain.BranchThreshold, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialised")
	}

	var rows []domain.BranchThreshold
	if err := DB.Order("branch ASC, config_version ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	latest := make(map[string]domain.BranchThreshold, len(rows))
	for _, row := range rows {
		current, seen := latest[row.Branch]
		if !seen || row.ConfigVersion > current.ConfigVersion {
			latest[row.Branch] = row
		}
	}
	return latest, nil
}

// SaveBranchThresholds stores a new version of a branch's threshold set.
// The ordering invariant is enforced here: an invalid set is rejected, never
// silently corrected.
func SaveBranchThresholds(branch string, set domain.ThresholdSet) (domain.BranchThreshold, error) {
	if DB == nil {
		return domain.BranchThreshold{}, fmt.Errorf("database not initialised")
	}
	if err := grade.Validate(set); err != nil {
		return domain.BranchThreshold{}, err
	}

	row := domain.BranchThreshold{
		Branch:   branch,
		Safe:     set.Safe,
		Low:      set.Low,
		Medium:   set.Medium,
		High:     set.High,
		Critical: set.Critical,
	}

	err := DB.Transaction(func(tx *gorm.DB) error {
		var maxVersion uint32
		if err := tx.Model(&domain.BranchThreshold{}).
			Where("branch = ?", branch).
			Select("COALESCE(MAX(config_version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}

		row.ConfigVersion = maxVersion + 1
		return tx.Create(&row).Error
	})
	if err != nil {
		return domain.BranchThreshold{}, err
	}

	return row, nil
}
