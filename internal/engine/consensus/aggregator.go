package consensus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"shrike/internal/domain"
)

const (
	DefaultMultiplierMin      = 0.7
	DefaultMultiplierMax      = 1.3
	DefaultFallbackMultiplier = 1.0
	DefaultAgreementTolerance = 0.1
	DefaultMaxKeyFactors      = 5
	DefaultProducerTimeout    = 10 * time.Second
)

// LabelBand maps multipliers at or above Min to Label. Bands must be sorted
// by descending Min; multipliers below every band get the safe label.
type LabelBand struct {
	Min   float64 `json:"min"`
	Label string  `json:"label"`
}

// Config controls one aggregation pass. Zero values fall back to the
// package defaults so a partially filled config stays usable.
type Config struct {
	MultiplierMin      float64
	MultiplierMax      float64
	FallbackMultiplier float64
	AgreementTolerance float64
	MaxKeyFactors      int
	ProducerTimeout    time.Duration
	LabelBands         []LabelBand
	Producers          map[string]ProducerSettings
}

// DefaultLabelBands returns the stock multiplier-to-label bands.
func DefaultLabelBands() []LabelBand {
	return []LabelBand{
		{Min: 1.2, Label: domain.ConsensusLabelCritical},
		{Min: 1.1, Label: domain.ConsensusLabelHigh},
		{Min: 0.9, Label: domain.ConsensusLabelMedium},
		{Min: 0.8, Label: domain.ConsensusLabelLow},
	}
}

func (cfg Config) normalized() Config {
	if cfg.MultiplierMin == 0 && cfg.MultiplierMax == 0 {
		cfg.MultiplierMin = DefaultMultiplierMin
		cfg.MultiplierMax = DefaultMultiplierMax
	}
	if cfg.FallbackMultiplier == 0 {
		cfg.FallbackMultiplier = DefaultFallbackMultiplier
	}
	if cfg.AgreementTolerance <= 0 {
		cfg.AgreementTolerance = DefaultAgreementTolerance
	}
	if cfg.MaxKeyFactors <= 0 {
		cfg.MaxKeyFactors = DefaultMaxKeyFactors
	}
	if cfg.ProducerTimeout <= 0 {
		cfg.ProducerTimeout = DefaultProducerTimeout
	}
	if len(cfg.LabelBands) == 0 {
		cfg.LabelBands = DefaultLabelBands()
	}
	return cfg
}

// Aggregate invokes every producer concurrently, each under its own timeout,
// waits for all of them to settle and folds the opinions into one consensus.
// A slow or erroring producer never blocks the others and never fails the
// whole pass; its weight is redistributed over the successful subset.
func Aggregate(ctx context.Context, scan domain.ScanContext, producers []SignalProducer, cfg Config) domain.ConsensusResult {
	cfg = cfg.normalized()

	opinions := collectOpinions(ctx, scan, producers, cfg)

	var succeeded []domain.SignalOpinion
	failedCount := 0
	for _, opinion := range opinions {
		if opinion.Failed {
			failedCount++
			continue
		}
		succeeded = append(succeeded, opinion)
	}

	result := domain.ConsensusResult{
		Attempted:   len(opinions),
		FailedCount: failedCount,
		Opinions:    opinions,
	}

	if len(succeeded) == 0 {
		result.FinalMultiplier = cfg.FallbackMultiplier
		result.Label = domain.ConsensusLabelPending
		if len(opinions) > 0 {
			log.Warn("All signal producers failed, using fallback multiplier",
				"attempted", len(opinions), "fallback", cfg.FallbackMultiplier)
		}
		return result
	}

	weights := renormalizeWeights(succeeded, cfg.Producers)

	var weighted float64
	for _, opinion := range succeeded {
		weighted += weights[opinion.Producer] * opinion.Multiplier
	}
	final := clamp(weighted, cfg.MultiplierMin, cfg.MultiplierMax)

	agreeing := 0
	var confidenceSum float64
	for _, opinion := range succeeded {
		if abs(opinion.Multiplier-final) <= cfg.AgreementTolerance {
			agreeing++
		}
		confidenceSum += opinion.Confidence
	}

	result.FinalMultiplier = final
	result.AgreementRate = float64(agreeing) / float64(len(succeeded)) * 100
	result.AvgConfidence = confidenceSum / float64(len(succeeded))
	result.Label = labelForMultiplier(final, cfg.LabelBands)
	result.WeightsUsed = weights

	return result
}

type indexedOpinion struct {
	index   int
	opinion domain.SignalOpinion
}

func collectOpinions(ctx context.Context, scan domain.ScanContext, producers []SignalProducer, cfg Config) []domain.SignalOpinion {
	if len(producers) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	results := make(chan indexedOpinion, len(producers))
	var wg sync.WaitGroup

	for i, producer := range producers {
		settings := cfg.Producers[producer.Name()]
		timeout := settings.timeout(cfg.ProducerTimeout)

		wg.Add(1)
		go func(index int, producer SignalProducer, timeout time.Duration) {
			defer wg.Done()
			results <- indexedOpinion{
				index:   index,
				opinion: callProducer(ctx, scan, producer, timeout, cfg),
			}
		}(i, producer, timeout)
	}

	wg.Wait()
	close(results)

	opinions := make([]domain.SignalOpinion, len(producers))
	for res := range results {
		opinions[res.index] = res.opinion
	}
	return opinions
}

// callProducer runs one producer under its own deadline. The inner goroutine
// lets a producer that ignores ctx still be abandoned on timeout.
func callProducer(ctx context.Context, scan domain.ScanContext, producer SignalProducer, timeout time.Duration, cfg Config) domain.SignalOpinion {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		opinion domain.SignalOpinion
		err     error
	}

	done := make(chan outcome, 1)
	started := time.Now()

	go func() {
		opinion, err := producer.Analyze(callCtx, scan)
		done <- outcome{opinion: opinion, err: err}
	}()

	select {
	case out := <-done:
		elapsed := time.Since(started)
		if out.err != nil {
			log.Warn("Signal producer failed", "producer", producer.Name(), "error", out.err)
			return FailedOpinion(producer.Name(), cfg.FallbackMultiplier, elapsed, out.err)
		}
		return sanitizeOpinion(producer.Name(), out.opinion, elapsed, cfg)
	case <-callCtx.Done():
		elapsed := time.Since(started)
		log.Warn("Signal producer timed out", "producer", producer.Name(), "timeout", timeout)
		return FailedOpinion(producer.Name(), cfg.FallbackMultiplier, elapsed, fmt.Errorf("producer %s: %w", producer.Name(), callCtx.Err()))
	}
}

func sanitizeOpinion(name string, opinion domain.SignalOpinion, elapsed time.Duration, cfg Config) domain.SignalOpinion {
	opinion.Producer = name
	opinion.Failed = false
	opinion.Error = ""
	opinion.ElapsedMS = elapsed.Milliseconds()
	opinion.RiskScore = clamp(opinion.RiskScore, 0, 100)
	opinion.Confidence = clamp(opinion.Confidence, 0, 100)
	if len(opinion.KeyFactors) > cfg.MaxKeyFactors {
		opinion.KeyFactors = opinion.KeyFactors[:cfg.MaxKeyFactors]
	}
	return opinion
}

// renormalizeWeights divides each successful producer's static weight by the
// sum of static weights across successes, so the weights in play always sum
// to 1 and a failed producer's share is redistributed proportionally.
func renormalizeWeights(succeeded []domain.SignalOpinion, settings map[string]ProducerSettings) map[string]float64 {
	weights := make(map[string]float64, len(succeeded))

	var total float64
	for _, opinion := range succeeded {
		weight := settings[opinion.Producer].Weight
		if weight <= 0 {
			weight = 1
		}
		weights[opinion.Producer] = weight
		total += weight
	}

	for name, weight := range weights {
		weights[name] = weight / total
	}
	return weights
}

func labelForMultiplier(multiplier float64, bands []LabelBand) string {
	sorted := make([]LabelBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Min > sorted[j].Min
	})

	for _, band := range sorted {
		if multiplier >= band.Min {
			return band.Label
		}
	}
	return domain.ConsensusLabelSafe
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func abs(value float64) float64 {
	if value < 0 {
		return -value
	}
	return value
}
