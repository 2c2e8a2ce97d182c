package policy

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"shrike/internal/domain"
)

// Action is what a matching rule asks the caller to do with the verdict.
type Action struct {
	Type       string       `json:"type"`
	Grade      domain.Grade `json:"grade,omitempty"`
	Multiplier float64      `json:"multiplier,omitempty"`
	Annotation string       `json:"annotation,omitempty"`
}

// Rule is the decoded runtime form of a persisted policy rule.
type Rule struct {
	ID        uint64
	Name      string
	Priority  int
	Enabled   bool
	Condition Condition
	Action    Action
}

// Match reports which rule fired and what it wants applied.
type Match struct {
	RuleID   uint64 `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Action   Action `json:"action"`
}

// Application is one recorded live match, handed to the recorder for
// persistence.
type Application struct {
	RuleID    uint64
	AppliedAt time.Time
}

// FromModel decodes a persisted rule into its runtime form.
func FromModel(model domain.PolicyRule) (Rule, error) {
	var condition Condition
	if err := json.Unmarshal(model.Condition, &condition); err != nil {
		return Rule{}, fmt.Errorf("policy: rule %d condition: %w", model.ID, err)
	}

	return Rule{
		ID:        model.ID,
		Name:      model.Name,
		Priority:  model.Priority,
		Enabled:   model.Enabled,
		Condition: condition,
		Action: Action{
			Type:       model.Action,
			Grade:      domain.Grade(model.ActionGrade),
			Multiplier: model.ActionMultiplier,
			Annotation: model.Annotation,
		},
	}, nil
}

type ruleCounter struct {
	count       atomic.Uint64
	lastApplied atomic.Int64 // unix nanos
}

// Engine evaluates rules in ascending priority order and records live
// applications. Counters are per-rule atomics because concurrent
// evaluations may match the same rule at the same time.
type Engine struct {
	counters sync.Map // rule ID -> *ruleCounter
	record   func(Application)
}

// NewEngine builds an engine. record may be nil; when set it receives every
// live application for asynchronous persistence.
func NewEngine(record func(Application)) *Engine {
	return &Engine{record: record}
}

// Evaluate runs the rules against the field table, first match wins.
// Priority order is load-bearing: two matching rules with different
// priorities must always resolve to the lower number.
func (e *Engine) Evaluate(rules []Rule, fields Fields) (Match, bool) {
	for _, rule := range sortedByPriority(rules) {
		if !rule.Enabled {
			continue
		}
		if !rule.Condition.Eval(fields) {
			continue
		}

		e.recordApplication(rule.ID)
		return Match{RuleID: rule.ID, RuleName: rule.Name, Action: rule.Action}, true
	}
	return Match{}, false
}

// DryRun tests a single rule against a sample without touching application
// counters. This is deliberately a separate path from Evaluate so that
// testing a rule can never corrupt live statistics.
func (e *Engine) DryRun(rule Rule, fields Fields) bool {
	return rule.Condition.Eval(fields)
}

// ApplicationCount returns how often a rule has matched in this process.
func (e *Engine) ApplicationCount(ruleID uint64) uint64 {
	if counter, ok := e.counters.Load(ruleID); ok {
		return counter.(*ruleCounter).count.Load()
	}
	return 0
}

// LastApplied returns the time of the rule's most recent live match.
func (e *Engine) LastApplied(ruleID uint64) (time.Time, bool) {
	counter, ok := e.counters.Load(ruleID)
	if !ok {
		return time.Time{}, false
	}
	nanos := counter.(*ruleCounter).lastApplied.Load()
	if nanos == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

func (e *Engine) recordApplication(ruleID uint64) {
	now := time.Now()

	value, _ := e.counters.LoadOrStore(ruleID, &ruleCounter{})
	counter := value.(*ruleCounter)
	counter.count.Add(1)
	counter.lastApplied.Store(now.UnixNano())

	if e.record != nil {
		e.record(Application{RuleID: ruleID, AppliedAt: now})
	}
}

func sortedByPriority(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}
