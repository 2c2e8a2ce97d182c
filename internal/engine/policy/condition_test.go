package policy

import (
	"encoding/json"
	"testing"
)

func sampleFields() Fields {
	return Fields{
		"host":            "login.example-bank.test",
		"branch":          "ONLINE",
		"grade":           "B",
		"probability":     0.19,
		"ti_hits":         2,
		"domain_age_days": 4,
		"has_login_form":  true,
	}
}

func TestEvalLeafOperators(t *testing.T) {
	fields := sampleFields()

	cases := []struct {
		name      string
		condition Condition
		want      bool
	}{
		{"eq numeric", Condition{Field: "ti_hits", Op: OpEq, Value: 2}, true},
		{"eq numeric mismatch", Condition{Field: "ti_hits", Op: OpEq, Value: 3}, false},
		{"eq string case-insensitive", Condition{Field: "grade", Op: OpEq, Value: "b"}, true},
		{"eq bool", Condition{Field: "has_login_form", Op: OpEq, Value: true}, true},
		{"ne", Condition{Field: "branch", Op: OpNe, Value: "PARKED"}, true},
		{"gt", Condition{Field: "probability", Op: OpGt, Value: 0.1}, true},
		{"gt false", Condition{Field: "probability", Op: OpGt, Value: 0.19}, false},
		{"gte boundary", Condition{Field: "probability", Op: OpGte, Value: 0.19}, true},
		{"lt", Condition{Field: "domain_age_days", Op: OpLt, Value: 30}, true},
		{"lte boundary", Condition{Field: "ti_hits", Op: OpLte, Value: 2}, true},
		{"contains", Condition{Field: "host", Op: OpContains, Value: "example-bank"}, true},
		{"contains case-insensitive", Condition{Field: "host", Op: OpContains, Value: "EXAMPLE"}, true},
		{"not_contains", Condition{Field: "host", Op: OpNotContains, Value: "paypal"}, true},
		{"in", Condition{Field: "grade", Op: OpIn, Value: []any{"A", "B"}}, true},
		{"in miss", Condition{Field: "grade", Op: OpIn, Value: []any{"E", "F"}}, false},
		{"in string slice", Condition{Field: "branch", Op: OpIn, Value: []string{"ONLINE", "WAF"}}, true},
		{"not_in", Condition{Field: "branch", Op: OpNotIn, Value: []any{"PARKED", "SINKHOLE"}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.condition.Eval(fields); got != tc.want {
				t.Fatalf("Eval() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvalUnknownFieldIsNonMatch(t *testing.T) {
	condition := Condition{Field: "no_such_field", Op: OpEq, Value: 1}
	if condition.Eval(sampleFields()) {
		t.Fatal("clause on unknown field matched, want non-match")
	}
}

func TestEvalUnknownOperatorIsNonMatch(t *testing.T) {
	condition := Condition{Field: "ti_hits", Op: Operator("regex"), Value: ".*"}
	if condition.Eval(sampleFields()) {
		t.Fatal("clause with unknown operator matched, want non-match")
	}
}

func TestEvalNestedCombinators(t *testing.T) {
	condition := Condition{
		All: []Condition{
			{Field: "ti_hits", Op: OpGt, Value: 0},
			{Any: []Condition{
				{Field: "grade", Op: OpIn, Value: []any{"A", "B"}},
				{Field: "probability", Op: OpLt, Value: 0.05},
			}},
		},
	}

	if !condition.Eval(sampleFields()) {
		t.Fatal("nested condition did not match, want match")
	}

	fields := sampleFields()
	fields["ti_hits"] = 0
	if condition.Eval(fields) {
		t.Fatal("nested condition matched with ti_hits=0, want non-match")
	}
}

func TestConditionRoundTripsThroughJSON(t *testing.T) {
	raw := []byte(`{"all":[{"field":"ti_hits","op":"gte","value":3},{"field":"grade","op":"in","value":["A","B"]}]}`)

	var condition Condition
	if err := json.Unmarshal(raw, &condition); err != nil {
		t.Fatalf("unmarshal condition: %v", err)
	}

	fields := sampleFields()
	fields["ti_hits"] = 5
	if !condition.Eval(fields) {
		t.Fatal("decoded condition did not match, want match")
	}

	fields["grade"] = "F"
	if condition.Eval(fields) {
		t.Fatal("decoded condition matched with grade F, want non-match")
	}
}
