// Package engine wires the scoring pipeline together: category scoring,
// signal consensus, grade mapping and policy overrides. Everything outside
// the producer calls is synchronous and deterministic for a given input.
package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"shrike/internal/domain"
	"shrike/internal/engine/consensus"
	"shrike/internal/engine/grade"
	"shrike/internal/engine/policy"
	"shrike/internal/engine/score"
)

// Request carries everything one evaluation needs. Configuration is passed
// in as a snapshot; the engine never reads live configuration mid-flight.
type Request struct {
	Context         domain.ScanContext
	Checks          []domain.CheckResult
	CategoryWeights map[string]float64
	Thresholds      domain.ThresholdSet
	Rules           []policy.Rule
}

// Response is the full verdict plus the metadata a caller needs to decide
// whether to trust it.
type Response struct {
	BaseScore      float64                `json:"base_score"`
	ActiveMaxScore float64                `json:"active_max_score"`
	Percentage     float64                `json:"percentage"`
	PerCategory    []domain.CategoryScore `json:"per_category"`
	Consensus      domain.ConsensusResult `json:"consensus"`
	Probability    float64                `json:"probability"`
	Grade          domain.Grade           `json:"grade"`
	Override       *policy.Match          `json:"override_applied,omitempty"`
	Annotations    []string               `json:"annotations,omitempty"`
	FinalGrade     domain.Grade           `json:"final_grade"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// Engine holds the long-lived pieces: the injected producers and the policy
// engine with its application counters.
type Engine struct {
	producers []consensus.SignalProducer
	policy    *policy.Engine
}

// New builds an engine over the given producer set. recordApplication may be
// nil; when set it receives every live rule application for persistence.
func New(producers []consensus.SignalProducer, recordApplication func(policy.Application)) *Engine {
	return &Engine{
		producers: producers,
		policy:    policy.NewEngine(recordApplication),
	}
}

// Policy exposes the rule engine for dry-run handling and counter reads.
func (e *Engine) Policy() *policy.Engine {
	return e.policy
}

// Evaluate runs the full pipeline. Partial producer failure degrades the
// consensus but never fails the call; the only fatal input error is an
// invalid threshold set, which must surface instead of being guessed around.
func (e *Engine) Evaluate(ctx context.Context, req Request, cfg consensus.Config) (Response, error) {
	scored := score.Score(req.Checks, req.CategoryWeights)

	resp := Response{
		BaseScore:      scored.BaseScore,
		ActiveMaxScore: scored.ActiveMaxScore,
		Percentage:     scored.Percentage,
		PerCategory:    scored.PerCategory,
	}
	if scored.ZeroActiveChecks {
		resp.Warnings = append(resp.Warnings, "no enabled checks; base percentage defaulted to 0")
		log.Warn("Evaluation has no enabled checks", "target", req.Context.Target)
	}

	resp.Consensus = consensus.Aggregate(ctx, req.Context, e.producers, cfg)
	if resp.Consensus.Attempted > 0 && resp.Consensus.FailedCount == resp.Consensus.Attempted {
		resp.Warnings = append(resp.Warnings, "all signal producers failed; consensus fell back to neutral multiplier")
	}

	resp.Probability = clamp01(scored.Percentage * resp.Consensus.FinalMultiplier)

	mapped, err := grade.MapToGrade(resp.Probability, req.Thresholds)
	if err != nil {
		return Response{}, fmt.Errorf("engine: map grade for branch %s: %w", req.Context.Branch, err)
	}
	resp.Grade = mapped
	resp.FinalGrade = mapped

	fields := BuildFields(req.Context, resp)
	if match, ok := e.policy.Evaluate(req.Rules, fields); ok {
		e.applyOverride(&resp, req, match)
	}

	return resp, nil
}

func (e *Engine) applyOverride(resp *Response, req Request, match policy.Match) {
	resp.Override = &match

	switch match.Action.Type {
	case domain.RuleActionOverrideGrade:
		if match.Action.Grade.IsValid() {
			resp.FinalGrade = match.Action.Grade
		} else {
			log.Warn("Override rule carries invalid grade, keeping computed verdict",
				"rule_id", match.RuleID, "grade", string(match.Action.Grade))
		}
	case domain.RuleActionOverrideMultiplier:
		resp.Probability = clamp01(resp.Percentage * match.Action.Multiplier)
		if regraded, err := grade.MapToGrade(resp.Probability, req.Thresholds); err == nil {
			resp.FinalGrade = regraded
		}
	case domain.RuleActionAnnotate:
		if match.Action.Annotation != "" {
			resp.Annotations = append(resp.Annotations, match.Action.Annotation)
		}
	default:
		log.Warn("Override rule carries unknown action", "rule_id", match.RuleID, "action", match.Action.Type)
	}
}

// BuildFields assembles the fixed field table rule clauses resolve against.
// The table is explicit on purpose: rules can only see what is listed here.
func BuildFields(scan domain.ScanContext, resp Response) policy.Fields {
	return policy.Fields{
		"target":           scan.Target,
		"host":             scan.Host,
		"branch":           string(scan.Branch),
		"grade":            string(resp.Grade),
		"probability":      resp.Probability,
		"percentage":       resp.Percentage,
		"base_score":       resp.BaseScore,
		"multiplier":       resp.Consensus.FinalMultiplier,
		"consensus_label":  resp.Consensus.Label,
		"agreement_rate":   resp.Consensus.AgreementRate,
		"failed_producers": resp.Consensus.FailedCount,
		"ti_hits":          scan.Evidence.ThreatIntelHits,
		"domain_age_days":  scan.Evidence.DomainAgeDays,
		"has_login_form":   scan.Evidence.HasLoginForm,
		"tls_valid":        scan.Evidence.TLSValid,
		"redirect_count":   scan.Evidence.RedirectCount,
		"uses_punycode":    scan.Evidence.UsesPunycode,
	}
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
