package database

import (
	"fmt"

	"shrike/internal/domain"
)

// InsertCalibrationRun records a calibration recommendation for audit.
func InsertCalibrationRun(run *domain.CalibrationRun) error {
	if DB == nil {
		return fmt.Errorf("database not initialised")
	}
	return DB.Create(run).Error
}

// GetRecentCalibrationRuns lists the most recent runs for one branch.
func GetRecentCalibrationRuns(branch string, limit int) ([]domain.CalibrationRun, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialised")
	}
	if limit <= 0 {
		limit = 20
	}

	var runs []domain.CalibrationRun
	err := DB.
		Where("branch = ?", branch).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
