package rest

import "net/http"

// HealthResponse reports service liveness and which upstreams are wired.
type HealthResponse struct {
	Status          string `json:"status"`
	AgentConfigured bool   `json:"agentConfigured"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		AgentConfigured: h.agent != nil,
	})
}
