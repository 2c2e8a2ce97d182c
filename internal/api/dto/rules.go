package dto

import (
	"time"

	"shrike/internal/domain"
	"shrike/internal/engine/policy"
)

// RuleInfo is the read model for the rule listing endpoint.
type RuleInfo struct {
	ID            uint64     `json:"id"`
	Name          string     `json:"name"`
	Priority      int        `json:"priority"`
	Enabled       bool       `json:"enabled"`
	Action        string     `json:"action"`
	AppliedCount  uint64     `json:"applied_count"`
	LastAppliedAt *time.Time `json:"last_applied_at,omitempty"`
}

// RuleSample is a hand-built evaluation snapshot a rule is dry-run against.
type RuleSample struct {
	Context         domain.ScanContext `json:"context"`
	Grade           domain.Grade       `json:"grade"`
	Probability     float64            `json:"probability"`
	Percentage      float64            `json:"percentage"`
	BaseScore       float64            `json:"base_score"`
	Multiplier      float64            `json:"multiplier"`
	ConsensusLabel  string             `json:"consensus_label"`
	AgreementRate   float64            `json:"agreement_rate"`
	FailedProducers int                `json:"failed_producers"`
}

type RuleDryRunRequest struct {
	RuleID uint64     `json:"rule_id"`
	Sample RuleSample `json:"sample"`
}

type RuleDryRunResponse struct {
	RuleID  uint64         `json:"rule_id"`
	Matched bool           `json:"matched"`
	Action  *policy.Action `json:"action,omitempty"`
}
