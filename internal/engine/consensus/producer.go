package consensus

import (
	"context"
	"time"

	"shrike/internal/domain"
)

// SignalProducer is the uniform contract every opinion source satisfies.
// Implementations must honour ctx cancellation and return expected failure
// modes (network errors, malformed responses) as an error, never panic.
type SignalProducer interface {
	Name() string
	Analyze(ctx context.Context, scan domain.ScanContext) (domain.SignalOpinion, error)
}

// ProducerSettings carries the static weight and timeout configured for one
// producer. Weights are renormalised over the successful subset at
// aggregation time.
type ProducerSettings struct {
	Weight    float64 `json:"weight"`
	TimeoutMS uint32  `json:"timeout_ms"`
	Enabled   bool    `json:"enabled"`
}

func (ps ProducerSettings) timeout(fallback time.Duration) time.Duration {
	if ps.TimeoutMS == 0 {
		return fallback
	}
	return time.Duration(ps.TimeoutMS) * time.Millisecond
}

// FailedOpinion builds the tagged-failure opinion recorded when a producer
// errors or times out. Failures stay first-class data in the result.
func FailedOpinion(name string, fallbackMultiplier float64, elapsed time.Duration, err error) domain.SignalOpinion {
	opinion := domain.SignalOpinion{
		Producer:   name,
		Multiplier: fallbackMultiplier,
		ElapsedMS:  elapsed.Milliseconds(),
		Failed:     true,
	}
	if err != nil {
		opinion.Error = err.Error()
	}
	return opinion
}
