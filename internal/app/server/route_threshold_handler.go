package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"shrike/internal/database"
	"shrike/internal/domain"
	"shrike/internal/engine/grade"
)

func getBranchThresholds(w http.ResponseWriter, r *http.Request) {
	branch := domain.Branch(r.PathValue("branch"))
	if !branch.IsValid() {
		writeError(w, "unknown branch", http.StatusBadRequest)
		return
	}

	row, err := database.GetBranchThresholds(string(branch))
	if err != nil {
		if errors.Is(err, database.ErrBranchNotConfigured) {
			writeError(w, "no thresholds configured for branch", http.StatusNotFound)
			return
		}
		log.Error("Failed to load branch thresholds", "branch", branch, "error", err)
		writeError(w, "failed to load thresholds", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// saveBranchThresholds persists a new threshold version for the branch. The
// set is validated before it is written; an invalid set never reaches the
// database and the live version stays untouched.
func saveBranchThresholds(w http.ResponseWriter, r *http.Request) {
	branch := domain.Branch(r.PathValue("branch"))
	if !branch.IsValid() {
		writeError(w, "unknown branch", http.StatusBadRequest)
		return
	}

	var set domain.ThresholdSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	row, err := database.SaveBranchThresholds(string(branch), set)
	if err != nil {
		if errors.Is(err, grade.ErrInvalidThresholds) {
			writeError(w, "thresholds must be within [0,1] and strictly increasing", http.StatusUnprocessableEntity)
			return
		}
		log.Error("Failed to save branch thresholds", "branch", branch, "error", err)
		writeError(w, "failed to save thresholds", http.StatusInternalServerError)
		return
	}

	database.InvalidateEngineSnapshot()
	log.Info("Branch thresholds updated", "branch", branch, "version", row.ConfigVersion)

	writeJSON(w, http.StatusOK, row)
}
