package grade

import (
	"errors"
	"testing"

	"shrike/internal/domain"
)

func onlineSet() domain.ThresholdSet {
	return domain.ThresholdSet{Safe: 0.15, Low: 0.30, Medium: 0.50, High: 0.75, Critical: 0.90}
}

func TestMapToGradeBands(t *testing.T) {
	set := onlineSet()

	cases := []struct {
		probability float64
		want        domain.Grade
	}{
		{0.0, domain.GradeA},
		{0.14, domain.GradeA},
		{0.15, domain.GradeB},
		{0.29, domain.GradeB},
		{0.30, domain.GradeC},
		{0.49, domain.GradeC},
		{0.50, domain.GradeD},
		{0.75, domain.GradeE},
		{0.89, domain.GradeE},
		{0.90, domain.GradeF},
		{1.0, domain.GradeF},
	}

	for _, tc := range cases {
		got, err := MapToGrade(tc.probability, set)
		if err != nil {
			t.Fatalf("MapToGrade(%v) error: %v", tc.probability, err)
		}
		if got != tc.want {
			t.Fatalf("MapToGrade(%v) = %s, want %s", tc.probability, got, tc.want)
		}
	}
}

func TestMapToGradeIsMonotonic(t *testing.T) {
	set := onlineSet()

	previous := domain.GradeA
	for p := 0.0; p <= 1.0; p += 0.01 {
		got, err := MapToGrade(p, set)
		if err != nil {
			t.Fatalf("MapToGrade(%v) error: %v", p, err)
		}
		if got.Severity() < previous.Severity() {
			t.Fatalf("grade regressed from %s to %s at probability %v", previous, got, p)
		}
		previous = got
	}
}

func TestValidateRejectsNonIncreasingCuts(t *testing.T) {
	set := onlineSet()
	set.Medium = set.Low

	if err := Validate(set); !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("Validate error = %v, want ErrInvalidThresholds", err)
	}
	if _, err := MapToGrade(0.5, set); !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("MapToGrade error = %v, want ErrInvalidThresholds", err)
	}
}

func TestValidateRejectsOutOfRangeCut(t *testing.T) {
	set := onlineSet()
	set.Critical = 1.2

	if err := Validate(set); !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("Validate error = %v, want ErrInvalidThresholds", err)
	}
}

func TestMapToGradeRejectsOutOfRangeProbability(t *testing.T) {
	set := onlineSet()

	if _, err := MapToGrade(-0.01, set); err == nil {
		t.Fatal("MapToGrade(-0.01) succeeded, want error")
	}
	if _, err := MapToGrade(1.01, set); err == nil {
		t.Fatal("MapToGrade(1.01) succeeded, want error")
	}
}
