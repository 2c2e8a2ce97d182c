package server

import (
	"net/http"

	"shrike/internal/jobs/runtime"
	"shrike/internal/support"
)

func getHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok"}

	if client, err := support.GetRedisClient(); err == nil {
		if instances, err := runtime.CountActiveInstances(r.Context(), client); err == nil {
			payload["instances"] = instances
		}
	}

	writeJSON(w, http.StatusOK, payload)
}
