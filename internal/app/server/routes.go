package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"shrike/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func OpenRoutes(port int) error {
	router := http.NewServeMux()

	router.Handle("POST /evaluate", auth.RequireAuth(http.HandlerFunc(evaluateTarget)))

	router.Handle("GET /rules", auth.RequireAuth(http.HandlerFunc(getRules)))
	router.Handle("POST /rules/dryrun", auth.RequireAuth(http.HandlerFunc(dryRunRule)))

	router.Handle("GET /thresholds/{branch}", auth.RequireAuth(http.HandlerFunc(getBranchThresholds)))
	router.Handle("PUT /thresholds/{branch}", auth.IsAdmin(http.HandlerFunc(saveBranchThresholds)))

	router.Handle("POST /calibrate", auth.IsAdmin(http.HandlerFunc(runCalibration)))
	router.Handle("GET /calibrations/{branch}", auth.RequireAuth(http.HandlerFunc(getCalibrationRuns)))

	router.Handle("GET /global/settings", auth.IsAdmin(http.HandlerFunc(getGlobalSettings)))
	router.Handle("POST /global/settings", auth.IsAdmin(http.HandlerFunc(saveGlobalSettings)))

	router.HandleFunc("GET /version", getVersion)
	router.HandleFunc("GET /health", getHealth)

	log.Debug("Routes opened")

	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: enableCORS(router),
	}

	log.Infof("Starting shrike engine on port :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}
