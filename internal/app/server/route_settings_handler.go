package server

import (
	"encoding/json"
	"net/http"

	"shrike/internal/config"
)

func getGlobalSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, config.GetConfig())
}

func saveGlobalSettings(w http.ResponseWriter, r *http.Request) {
	var newConfig config.Config
	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	config.SetConfig(newConfig)
	writeJSON(w, http.StatusOK, config.GetConfig())
}
