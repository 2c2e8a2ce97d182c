package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"shrike/internal/api/dto"
	"shrike/internal/database"
	"shrike/internal/domain"
	"shrike/internal/engine/calibrate"
)

// runCalibration sweeps the submitted labelled samples and records the
// recommendation. Live thresholds are never touched here; promoting a
// recommendation goes through the threshold endpoint.
func runCalibration(w http.ResponseWriter, r *http.Request) {
	var req dto.CalibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	branch := domain.Branch(req.Branch)
	if !branch.IsValid() {
		writeError(w, "unknown branch", http.StatusBadRequest)
		return
	}

	result, err := calibrate.Run(req.Samples)
	if err != nil {
		switch {
		case errors.Is(err, calibrate.ErrNoSamples), errors.Is(err, calibrate.ErrInvalidSamples):
			writeError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, calibrate.ErrInvalidLabel):
			writeError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			log.Error("Calibration failed", "branch", branch, "error", err)
			writeError(w, "calibration failed", http.StatusInternalServerError)
		}
		return
	}

	run := domain.CalibrationRun{
		Branch:      string(branch),
		SampleCount: result.SampleCount,

		RecommendedSafe:     result.Recommended.Safe,
		RecommendedLow:      result.Recommended.Low,
		RecommendedMedium:   result.Recommended.Medium,
		RecommendedHigh:     result.Recommended.High,
		RecommendedCritical: result.Recommended.Critical,

		Accuracy:          result.Metrics.Accuracy,
		Precision:         result.Metrics.Precision,
		Recall:            result.Metrics.Recall,
		F1:                result.Metrics.F1,
		FalsePositiveRate: result.Metrics.FalsePositiveRate,
		FalseNegativeRate: result.Metrics.FalseNegativeRate,
	}
	if err := database.InsertCalibrationRun(&run); err != nil {
		// The recommendation is still useful without the audit row.
		log.Error("Failed to persist calibration run", "branch", branch, "error", err)
	}

	writeJSON(w, http.StatusOK, dto.CalibrationResponse{
		Branch:           string(branch),
		OptimalThreshold: result.OptimalThreshold,
		Recommended:      result.Recommended,
		Metrics:          result.Metrics,
		SampleCount:      result.SampleCount,
		RunID:            run.ID,
	})
}

func getCalibrationRuns(w http.ResponseWriter, r *http.Request) {
	branch := domain.Branch(r.PathValue("branch"))
	if !branch.IsValid() {
		writeError(w, "unknown branch", http.StatusBadRequest)
		return
	}

	runs, err := database.GetRecentCalibrationRuns(string(branch), 0)
	if err != nil {
		log.Error("Failed to load calibration runs", "branch", branch, "error", err)
		writeError(w, "failed to load calibration runs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, runs)
}
