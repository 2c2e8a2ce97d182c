package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"shrike/internal/api/dto"
	"shrike/internal/app/bootstrap"
	"shrike/internal/config"
	"shrike/internal/database"
	"shrike/internal/engine"
	"shrike/internal/engine/grade"
)

func evaluateTarget(w http.ResponseWriter, r *http.Request) {
	var req dto.EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Context.Target == "" {
		writeError(w, "context.target is required", http.StatusBadRequest)
		return
	}
	if !req.Context.Branch.IsValid() {
		writeError(w, "context.branch is not a known branch", http.StatusBadRequest)
		return
	}

	snapshot, err := database.LoadEngineSnapshot()
	if err != nil {
		log.Error("Failed to load engine snapshot", "error", err)
		writeError(w, "configuration unavailable", http.StatusServiceUnavailable)
		return
	}

	thresholds, ok := snapshot.Thresholds[string(req.Context.Branch)]
	if !ok {
		writeError(w, "no thresholds configured for branch", http.StatusConflict)
		return
	}

	cfg := config.GetConfig()
	weights := req.CategoryWeights
	if weights == nil {
		weights = cfg.Scoring.CategoryWeights
	}

	response, err := bootstrap.Engine().Evaluate(r.Context(), engine.Request{
		Context:         req.Context,
		Checks:          req.Checks,
		CategoryWeights: weights,
		Thresholds:      thresholds,
		Rules:           snapshot.Rules,
	}, bootstrap.ConsensusConfig(cfg))
	if err != nil {
		if errors.Is(err, grade.ErrInvalidThresholds) {
			log.Error("Stored thresholds failed validation", "branch", req.Context.Branch, "error", err)
			writeError(w, "stored thresholds are invalid for branch", http.StatusConflict)
			return
		}
		log.Error("Evaluation failed", "target", req.Context.Target, "error", err)
		writeError(w, "evaluation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
