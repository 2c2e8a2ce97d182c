package policy

import (
	"testing"

	"shrike/internal/domain"
)

func overrideRule(id uint64, priority int, tiHitsAtLeast float64) Rule {
	return Rule{
		ID:       id,
		Name:     "threat-intel-override",
		Priority: priority,
		Enabled:  true,
		Condition: Condition{
			All: []Condition{
				{Field: "ti_hits", Op: OpGte, Value: tiHitsAtLeast},
				{Field: "grade", Op: OpIn, Value: []any{"A", "B"}},
			},
		},
		Action: Action{Type: domain.RuleActionOverrideGrade, Grade: domain.GradeD},
	}
}

func TestEvaluateFirstMatchWinsByPriority(t *testing.T) {
	engine := NewEngine(nil)

	// Deliberately out of order; evaluation must still resolve by priority.
	rules := []Rule{
		overrideRule(2, 20, 1),
		overrideRule(1, 10, 1),
	}
	fields := Fields{"ti_hits": 2, "grade": "B"}

	match, ok := engine.Evaluate(rules, fields)
	if !ok {
		t.Fatal("no rule matched, want match")
	}
	if match.RuleID != 1 {
		t.Fatalf("matched rule %d, want 1", match.RuleID)
	}
	if engine.ApplicationCount(1) != 1 {
		t.Fatalf("ApplicationCount(1) = %d, want 1", engine.ApplicationCount(1))
	}
	if engine.ApplicationCount(2) != 0 {
		t.Fatalf("ApplicationCount(2) = %d, want 0", engine.ApplicationCount(2))
	}
}

func TestEvaluateSkipsDisabledRules(t *testing.T) {
	engine := NewEngine(nil)

	disabled := overrideRule(1, 10, 1)
	disabled.Enabled = false
	rules := []Rule{disabled, overrideRule(2, 20, 1)}

	match, ok := engine.Evaluate(rules, Fields{"ti_hits": 2, "grade": "B"})
	if !ok || match.RuleID != 2 {
		t.Fatalf("match = %+v ok=%v, want rule 2", match, ok)
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	engine := NewEngine(nil)

	_, ok := engine.Evaluate([]Rule{overrideRule(1, 10, 3)}, Fields{"ti_hits": 1, "grade": "B"})
	if ok {
		t.Fatal("rule matched, want no match")
	}
	if engine.ApplicationCount(1) != 0 {
		t.Fatalf("ApplicationCount(1) = %d, want 0", engine.ApplicationCount(1))
	}
}

func TestEvaluateRecordsApplications(t *testing.T) {
	var recorded []Application
	engine := NewEngine(func(app Application) {
		recorded = append(recorded, app)
	})

	rules := []Rule{overrideRule(7, 1, 1)}
	fields := Fields{"ti_hits": 2, "grade": "B"}

	for i := 0; i < 3; i++ {
		if _, ok := engine.Evaluate(rules, fields); !ok {
			t.Fatal("rule did not match")
		}
	}

	if engine.ApplicationCount(7) != 3 {
		t.Fatalf("ApplicationCount(7) = %d, want 3", engine.ApplicationCount(7))
	}
	if len(recorded) != 3 {
		t.Fatalf("recorded %d applications, want 3", len(recorded))
	}
	if recorded[0].RuleID != 7 || recorded[0].AppliedAt.IsZero() {
		t.Fatalf("recorded application = %+v, want rule 7 with timestamp", recorded[0])
	}
	if _, ok := engine.LastApplied(7); !ok {
		t.Fatal("LastApplied(7) not set after live match")
	}
}

func TestDryRunNeverTouchesCounters(t *testing.T) {
	var recorded []Application
	engine := NewEngine(func(app Application) {
		recorded = append(recorded, app)
	})

	rule := overrideRule(9, 1, 1)
	fields := Fields{"ti_hits": 2, "grade": "B"}

	if !engine.DryRun(rule, fields) {
		t.Fatal("DryRun did not match, want match")
	}

	if engine.ApplicationCount(9) != 0 {
		t.Fatalf("ApplicationCount(9) = %d after dry-run, want 0", engine.ApplicationCount(9))
	}
	if len(recorded) != 0 {
		t.Fatalf("dry-run recorded %d applications, want 0", len(recorded))
	}
	if _, ok := engine.LastApplied(9); ok {
		t.Fatal("LastApplied(9) set after dry-run, want unset")
	}
}

func TestFromModelDecodesCondition(t *testing.T) {
	model := domain.PolicyRule{
		ID:         3,
		Name:       "punycode-annotate",
		Priority:   5,
		Enabled:    true,
		Condition:  []byte(`{"field":"uses_punycode","op":"eq","value":true}`),
		Action:     domain.RuleActionAnnotate,
		Annotation: "punycode host",
	}

	rule, err := FromModel(model)
	if err != nil {
		t.Fatalf("FromModel error: %v", err)
	}
	if rule.Action.Type != domain.RuleActionAnnotate || rule.Action.Annotation != "punycode host" {
		t.Fatalf("decoded action = %+v", rule.Action)
	}
	if !rule.Condition.Eval(Fields{"uses_punycode": true}) {
		t.Fatal("decoded condition did not match")
	}
}

func TestFromModelRejectsMalformedCondition(t *testing.T) {
	model := domain.PolicyRule{ID: 4, Condition: []byte(`{"field":`)}

	if _, err := FromModel(model); err == nil {
		t.Fatal("FromModel succeeded on malformed condition, want error")
	}
}
