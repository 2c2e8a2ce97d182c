package grade

import (
	"errors"
	"fmt"

	"shrike/internal/domain"
)

// ErrInvalidThresholds marks a threshold set that violates the strict
// ordering invariant. Mapping refuses to guess against such a set; the
// configuration bug has to surface instead.
var ErrInvalidThresholds = errors.New("grade: invalid threshold configuration")

// Validate checks the ordering invariant: 0 <= safe < low < medium < high <
// critical <= 1.
func Validate(set domain.ThresholdSet) error {
	cuts := []float64{set.Safe, set.Low, set.Medium, set.High, set.Critical}

	for _, cut := range cuts {
		if cut < 0 || cut > 1 {
			return fmt.Errorf("%w: cut point %.4f outside [0,1]", ErrInvalidThresholds, cut)
		}
	}
	for i := 1; i < len(cuts); i++ {
		if cuts[i] <= cuts[i-1] {
			return fmt.Errorf("%w: cut points must be strictly increasing (%.4f >= %.4f)",
				ErrInvalidThresholds, cuts[i-1], cuts[i])
		}
	}
	return nil
}

// MapToGrade maps a risk probability in [0,1] to a letter grade using the
// branch-specific threshold set. The set is validated first; an invalid set
// yields an error, never an arbitrary grade.
func MapToGrade(probability float64, set domain.ThresholdSet) (domain.Grade, error) {
	if err := Validate(set); err != nil {
		return "", err
	}
	if probability < 0 || probability > 1 {
		return "", fmt.Errorf("grade: probability %.4f outside [0,1]", probability)
	}

	switch {
	case probability < set.Safe:
		return domain.GradeA, nil
	case probability < set.Low:
		return domain.GradeB, nil
	case probability < set.Medium:
		return domain.GradeC, nil
	case probability < set.High:
		return domain.GradeD, nil
	case probability < set.Critical:
		return domain.GradeE, nil
	default:
		return domain.GradeF, nil
	}
}
