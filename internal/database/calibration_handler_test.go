package database

import (
	"testing"

	"shrike/internal/domain"
)

func TestInsertAndListCalibrationRuns(t *testing.T) {
	setupEngineTestDB(t)

	run := domain.CalibrationRun{
		Branch:      string(domain.BranchOnline),
		SampleCount: 40,

		RecommendedSafe:     0.50,
		RecommendedLow:      0.65,
		RecommendedMedium:   0.80,
		RecommendedHigh:     0.95,
		RecommendedCritical: 1.0,

		Accuracy:  0.975,
		Precision: 1.0,
		Recall:    0.95,
		F1:        0.974,
	}
	if err := InsertCalibrationRun(&run); err != nil {
		t.Fatalf("InsertCalibrationRun error: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("inserted run has no ID")
	}

	other := domain.CalibrationRun{Branch: string(domain.BranchParked), SampleCount: 10,
		RecommendedSafe: 0.1, RecommendedLow: 0.2, RecommendedMedium: 0.3, RecommendedHigh: 0.4, RecommendedCritical: 0.5}
	if err := InsertCalibrationRun(&other); err != nil {
		t.Fatalf("InsertCalibrationRun error: %v", err)
	}

	runs, err := GetRecentCalibrationRuns(string(domain.BranchOnline), 0)
	if err != nil {
		t.Fatalf("GetRecentCalibrationRuns error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("run count = %d, want 1 (branch filter)", len(runs))
	}
	if runs[0].ID != run.ID || runs[0].SampleCount != 40 {
		t.Fatalf("run = %+v, want the ONLINE insert", runs[0])
	}
}

func TestGetRecentCalibrationRunsHonoursLimit(t *testing.T) {
	setupEngineTestDB(t)

	for i := 0; i < 5; i++ {
		run := domain.CalibrationRun{Branch: string(domain.BranchWAF), SampleCount: i + 1,
			RecommendedSafe: 0.1, RecommendedLow: 0.2, RecommendedMedium: 0.3, RecommendedHigh: 0.4, RecommendedCritical: 0.5}
		if err := InsertCalibrationRun(&run); err != nil {
			t.Fatalf("InsertCalibrationRun error: %v", err)
		}
	}

	runs, err := GetRecentCalibrationRuns(string(domain.BranchWAF), 3)
	if err != nil {
		t.Fatalf("GetRecentCalibrationRuns error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("run count = %d, want 3", len(runs))
	}
}
