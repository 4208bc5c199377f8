package handlers

import (
	"net/http"
	"runtime"
	"time"
)

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"message":    "API is running",
		"timestamp":  time.Now().UTC(),
		"version":    h.version,
		"go_version": runtime.Version(),
		"uptime":     time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) TestHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Test endpoint working",
		"data": map[string]any{
			"version":     h.version,
			"environment": h.appEnv,
			"go_version":  runtime.Version(),
			"features":    h.features(),
		},
	})
}

func (h *Handler) FeaturesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"features":       h.features(),
		"new_api_active": true,
	})
}

func (h *Handler) features() map[string]bool {
	return map[string]bool{
		"new_api":    true,
		"web_push":   h.vapidPublicKey != "",
		"two_factor": true,
	}
}
