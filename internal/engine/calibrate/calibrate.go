package calibrate

import (
	"errors"
	"fmt"
	"sort"

	"shrike/internal/domain"
)

// Calibration failures are explicit: no verdict is expected from this path,
// so bad input is an error, not a degraded result.
var (
	ErrNoSamples      = errors.New("calibrate: not enough labeled samples")
	ErrInvalidLabel   = errors.New("calibrate: sample has invalid label")
	ErrInvalidSamples = errors.New("calibrate: sample probability outside [0,1]")
)

const (
	minSamples = 2

	// Offsets below/above the accuracy-optimal cut used to derive the full
	// five-point band. The optimum becomes the medium threshold.
	bandOffsetOuter = 0.30
	bandOffsetInner = 0.15

	// Minimum separation kept between cut points after clamping so the
	// recommendation always satisfies the strict-ordering invariant.
	minSeparation = 0.001
)

// Metrics are the standard binary-classifier metrics reported at the chosen
// medium threshold.
type Metrics struct {
	Accuracy          float64 `json:"accuracy"`
	Precision         float64 `json:"precision"`
	Recall            float64 `json:"recall"`
	F1                float64 `json:"f1"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	FalseNegativeRate float64 `json:"false_negative_rate"`
}

// Result is the calibration recommendation. Nothing here touches live
// configuration; applying it is a separate administrative action.
type Result struct {
	OptimalThreshold float64             `json:"optimal_threshold"`
	Recommended      domain.ThresholdSet `json:"recommended"`
	Metrics          Metrics             `json:"metrics"`
	SampleCount      int                 `json:"sample_count"`
}

type confusion struct {
	tp, tn, fp, fn int
}

// Run sweeps every distinct observed probability as a candidate threshold,
// picks the one maximising accuracy against the ground truth, and derives a
// symmetric five-point band around it.
func Run(samples []domain.CalibrationSample) (Result, error) {
	if len(samples) < minSamples {
		return Result{}, fmt.Errorf("%w: got %d, need at least %d", ErrNoSamples, len(samples), minSamples)
	}

	for i, sample := range samples {
		if sample.Probability < 0 || sample.Probability > 1 {
			return Result{}, fmt.Errorf("%w: sample %d has probability %.4f", ErrInvalidSamples, i, sample.Probability)
		}
		if sample.Label != domain.CalibrationLabelSafe && sample.Label != domain.CalibrationLabelMalicious {
			return Result{}, fmt.Errorf("%w: sample %d has label %q", ErrInvalidLabel, i, sample.Label)
		}
	}

	candidates := distinctProbabilities(samples)

	bestThreshold := candidates[0]
	bestAccuracy := -1.0
	for _, candidate := range candidates {
		matrix := confusionAt(samples, candidate)
		accuracy := float64(matrix.tp+matrix.tn) / float64(len(samples))
		if accuracy > bestAccuracy {
			bestAccuracy = accuracy
			bestThreshold = candidate
		}
	}

	matrix := confusionAt(samples, bestThreshold)

	return Result{
		OptimalThreshold: bestThreshold,
		Recommended:      bandAround(bestThreshold),
		Metrics:          metricsFrom(matrix, len(samples)),
		SampleCount:      len(samples),
	}, nil
}

func distinctProbabilities(samples []domain.CalibrationSample) []float64 {
	seen := make(map[float64]struct{}, len(samples))
	values := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if _, dup := seen[sample.Probability]; dup {
			continue
		}
		seen[sample.Probability] = struct{}{}
		values = append(values, sample.Probability)
	}
	sort.Float64s(values)
	return values
}

// confusionAt classifies each sample as malicious iff its probability is at
// or above the candidate threshold, then compares against ground truth.
func confusionAt(samples []domain.CalibrationSample, threshold float64) confusion {
	var matrix confusion
	for _, sample := range samples {
		predictedMalicious := sample.Probability >= threshold
		actuallyMalicious := sample.Label == domain.CalibrationLabelMalicious

		switch {
		case predictedMalicious && actuallyMalicious:
			matrix.tp++
		case predictedMalicious && !actuallyMalicious:
			matrix.fp++
		case !predictedMalicious && actuallyMalicious:
			matrix.fn++
		default:
			matrix.tn++
		}
	}
	return matrix
}

// bandAround derives the five cut points by fixed symmetric offsets around
// the optimum, clamped to [0,1]. Clamping can collapse neighbours near the
// edges, so a minimal separation is re-established afterwards to keep the
// set strictly increasing.
func bandAround(optimum float64) domain.ThresholdSet {
	cuts := []float64{
		optimum - bandOffsetOuter,
		optimum - bandOffsetInner,
		optimum,
		optimum + bandOffsetInner,
		optimum + bandOffsetOuter,
	}

	for i, cut := range cuts {
		cuts[i] = clamp01(cut)
	}

	for i := 1; i < len(cuts); i++ {
		if cuts[i] <= cuts[i-1] {
			cuts[i] = cuts[i-1] + minSeparation
		}
	}
	for i := len(cuts) - 1; i > 0; i-- {
		if cuts[i] > 1 {
			cuts[i] = 1
		}
		if cuts[i-1] >= cuts[i] {
			cuts[i-1] = cuts[i] - minSeparation
		}
	}
	if cuts[0] < 0 {
		cuts[0] = 0
	}

	return domain.ThresholdSet{
		Safe:     cuts[0],
		Low:      cuts[1],
		Medium:   cuts[2],
		High:     cuts[3],
		Critical: cuts[4],
	}
}

func metricsFrom(matrix confusion, total int) Metrics {
	metrics := Metrics{
		Accuracy: float64(matrix.tp+matrix.tn) / float64(total),
	}

	if matrix.tp+matrix.fp > 0 {
		metrics.Precision = float64(matrix.tp) / float64(matrix.tp+matrix.fp)
	}
	if matrix.tp+matrix.fn > 0 {
		metrics.Recall = float64(matrix.tp) / float64(matrix.tp+matrix.fn)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	if matrix.fp+matrix.tn > 0 {
		metrics.FalsePositiveRate = float64(matrix.fp) / float64(matrix.fp+matrix.tn)
	}
	if matrix.fn+matrix.tp > 0 {
		metrics.FalseNegativeRate = float64(matrix.fn) / float64(matrix.fn+matrix.tp)
	}

	return metrics
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
