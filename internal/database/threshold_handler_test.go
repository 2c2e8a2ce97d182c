package database

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shrike/internal/domain"
	"shrike/internal/engine/grade"
)

func setupEngineTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if _, err := SetupDB(WithExistingDB(db)); err != nil {
		t.Fatalf("set up database: %v", err)
	}

	t.Cleanup(func() {
		DB = nil
		InvalidateEngineSnapshot()
	})

	return db
}

func TestGetBranchThresholdsReturnsSeededDefaults(t *testing.T) {
	setupEngineTestDB(t)

	row, err := GetBranchThresholds(string(domain.BranchOnline))
	if err != nil {
		t.Fatalf("GetBranchThresholds error: %v", err)
	}

	if row.ConfigVersion != 1 {
		t.Fatalf("ConfigVersion = %d, want 1", row.ConfigVersion)
	}
	if row.Safe != 0.15 || row.Critical != 0.90 {
		t.Fatalf("seeded set = %+v, want ONLINE defaults", row.Set())
	}
}

func TestGetBranchThresholdsUnknownBranch(t *testing.T) {
	setupEngineTestDB(t)

	_, err := GetBranchThresholds("NO_SUCH_BRANCH")
	if !errors.Is(err, ErrBranchNotConfigured) {
		t.Fatalf("error = %v, want ErrBranchNotConfigured", err)
	}
}

func TestSaveBranchThresholdsBumpsVersion(t *testing.T) {
	setupEngineTestDB(t)

	update := domain.ThresholdSet{Safe: 0.10, Low: 0.25, Medium: 0.45, High: 0.70, Critical: 0.88}
	saved, err := SaveBranchThresholds(string(domain.BranchOnline), update)
	if err != nil {
		t.Fatalf("SaveBranchThresholds error: %v", err)
	}
	if saved.ConfigVersion != 2 {
		t.Fatalf("ConfigVersion = %d, want 2", saved.ConfigVersion)
	}

	live, err := GetBranchThresholds(string(domain.BranchOnline))
	if err != nil {
		t.Fatalf("GetBranchThresholds error: %v", err)
	}
	if live.ConfigVersion != 2 || live.Set() != update {
		t.Fatalf("live row = %+v, want version 2 with updated set", live)
	}

	all, err := GetAllBranchThresholds()
	if err != nil {
		t.Fatalf("GetAllBranchThresholds error: %v", err)
	}
	if all[string(domain.BranchOnline)].ConfigVersion != 2 {
		t.Fatalf("latest ONLINE version = %d, want 2", all[string(domain.BranchOnline)].ConfigVersion)
	}
	if all[string(domain.BranchParked)].ConfigVersion != 1 {
		t.Fatalf("latest PARKED version = %d, want 1", all[string(domain.BranchParked)].ConfigVersion)
	}
}

func TestSaveBranchThresholdsRejectsInvalidSet(t *testing.T) {
	setupEngineTestDB(t)

	before, err := GetBranchThresholds(string(domain.BranchOnline))
	if err != nil {
		t.Fatalf("GetBranchThresholds error: %v", err)
	}

	invalid := domain.ThresholdSet{Safe: 0.30, Low: 0.15, Medium: 0.50, High: 0.75, Critical: 0.90}
	if _, err := SaveBranchThresholds(string(domain.BranchOnline), invalid); !errors.Is(err, grade.ErrInvalidThresholds) {
		t.Fatalf("error = %v, want ErrInvalidThresholds", err)
	}

	after, err := GetBranchThresholds(string(domain.BranchOnline))
	if err != nil {
		t.Fatalf("GetBranchThresholds error: %v", err)
	}
	if after.ConfigVersion != before.ConfigVersion {
		t.Fatalf("live version changed from %d to %d after rejected write", before.ConfigVersion, after.ConfigVersion)
	}
}
