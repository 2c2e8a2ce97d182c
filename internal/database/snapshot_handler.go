package database

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"shrike/internal/domain"
	"shrike/internal/engine/policy"
)

// EngineSnapshot is the consistent configuration view one evaluation runs
// against. It is immutable once built; concurrent configuration writes
// produce a new snapshot instead of mutating this one.
type EngineSnapshot struct {
	LoadedAt   time.Time
	Rules      []policy.Rule
	Thresholds map[string]domain.ThresholdSet
}

const snapshotTTL = 2 * time.Second

var (
	snapshotValue atomic.Value // *EngineSnapshot
	snapshotGroup singleflight.Group
)

// LoadEngineSnapshot returns a recent snapshot of rules and thresholds,
// rebuilding at most once per TTL window. Concurrent callers share a single
// rebuild via singleflight.
func LoadEngineSnapshot() (*EngineSnapshot, error) {
	if cached, ok := snapshotValue.Load().(*EngineSnapshot); ok && cached != nil {
		if time.Since(cached.LoadedAt) < snapshotTTL {
			return cached, nil
		}
	}

	value, err, _ := snapshotGroup.Do("engine-snapshot", func() (any, error) {
		snapshot, err := buildEngineSnapshot()
		if err != nil {
			return nil, err
		}
		snapshotValue.Store(snapshot)
		return snapshot, nil
	})
	if err != nil {
		// A stale snapshot beats failing the evaluation outright.
		if cached, ok := snapshotValue.Load().(*EngineSnapshot); ok && cached != nil {
			log.Warn("Using stale engine snapshot after reload failure", "error", err)
			return cached, nil
		}
		return nil, err
	}

	return value.(*EngineSnapshot), nil
}

// InvalidateEngineSnapshot drops the cached snapshot so the next evaluation
// sees fresh configuration. Called after admin writes.
func InvalidateEngineSnapshot() {
	snapshotValue.Store((*EngineSnapshot)(nil))
}

func buildEngineSnapshot() (*EngineSnapshot, error) {
	ruleRows, err := GetPolicyRulesByPriority()
	if err != nil {
		return nil, err
	}

	rules := make([]policy.Rule, 0, len(ruleRows))
	for _, row := range ruleRows {
		rule, err := policy.FromModel(row)
		if err != nil {
			// One malformed rule must not take down evaluation; it is
			// skipped and left discoverable in the logs.
			log.Warn("Skipping undecodable policy rule", "rule_id", row.ID, "error", err)
			continue
		}
		rules = append(rules, rule)
	}

	thresholdRows, err := GetAllBranchThresholds()
	if err != nil {
		return nil, err
	}

	thresholds := make(map[string]domain.ThresholdSet, len(thresholdRows))
	for branch, row := range thresholdRows {
		thresholds[branch] = row.Set()
	}

	return &EngineSnapshot{
		LoadedAt:   time.Now(),
		Rules:      rules,
		Thresholds: thresholds,
	}, nil
}
