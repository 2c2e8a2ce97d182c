package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"shrike/internal/api/dto"
	"shrike/internal/app/bootstrap"
	"shrike/internal/database"
	"shrike/internal/domain"
	"shrike/internal/engine"
	"shrike/internal/engine/policy"
)

func getRules(w http.ResponseWriter, _ *http.Request) {
	rows, err := database.GetPolicyRulesByPriority()
	if err != nil {
		log.Error("Failed to load policy rules", "error", err)
		writeError(w, "failed to load rules", http.StatusInternalServerError)
		return
	}

	rules := make([]dto.RuleInfo, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, dto.RuleInfo{
			ID:            row.ID,
			Name:          row.Name,
			Priority:      row.Priority,
			Enabled:       row.Enabled,
			Action:        row.Action,
			AppliedCount:  row.AppliedCount,
			LastAppliedAt: row.LastAppliedAt,
		})
	}

	writeJSON(w, http.StatusOK, rules)
}

// dryRunRule matches a single stored rule against a caller-supplied sample.
// It never records an application and never mutates counters.
func dryRunRule(w http.ResponseWriter, r *http.Request) {
	var req dto.RuleDryRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RuleID == 0 {
		writeError(w, "rule_id is required", http.StatusBadRequest)
		return
	}

	row, err := database.GetPolicyRule(req.RuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, "rule not found", http.StatusNotFound)
			return
		}
		log.Error("Failed to load policy rule", "rule_id", req.RuleID, "error", err)
		writeError(w, "failed to load rule", http.StatusInternalServerError)
		return
	}

	rule, err := policy.FromModel(row)
	if err != nil {
		writeError(w, "rule condition is not decodable", http.StatusUnprocessableEntity)
		return
	}

	matched := bootstrap.Engine().Policy().DryRun(rule, fieldsFromSample(req.Sample))

	resp := dto.RuleDryRunResponse{RuleID: rule.ID, Matched: matched}
	if matched {
		resp.Action = &rule.Action
	}
	writeJSON(w, http.StatusOK, resp)
}

func fieldsFromSample(sample dto.RuleSample) policy.Fields {
	synthetic := engine.Response{
		BaseScore:   sample.BaseScore,
		Percentage:  sample.Percentage,
		Probability: sample.Probability,
		Grade:       sample.Grade,
		Consensus: domain.ConsensusResult{
			FinalMultiplier: sample.Multiplier,
			AgreementRate:   sample.AgreementRate,
			Label:           sample.ConsensusLabel,
			FailedCount:     sample.FailedProducers,
		},
	}
	return engine.BuildFields(sample.Context, synthetic)
}
