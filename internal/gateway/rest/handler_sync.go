package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storepilot/internal/catalog"
	"storepilot/internal/sync"
)

// heartbeatInterval keeps idle proxies from dropping the stream while a
// long fetch or upload stage produces no events.
const heartbeatInterval = 15 * time.Second

// handleSync runs one catalog sync and streams its progress as Server-Sent
// Events. The request is validated before the stream opens, so validation
// failures are plain 400 responses; once streaming starts, all outcomes
// arrive as events and the response is always 200.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[SyncRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	if req.Filter != "" {
		if _, err := catalog.CompileFilter(req.Filter); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest,
				"invalid filter expression: "+err.Error())
			return
		}
	}

	if !h.agentOrError(w) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError,
			"Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Initial comment confirms the stream is live before the first event.
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	orch := sync.NewOrchestrator(h.catalog, h.agent, h.logger)
	events := orch.Run(r.Context(), sync.Request{
		Credentials: catalog.Credentials{
			Domain:      req.Domain,
			AccessToken: req.AccessToken,
		},
		Filter: req.Filter,
	})

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("Sync stream client disconnected", "domain", req.Domain)
			return

		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()

		case ev, ok := <-events:
			if !ok {
				// Channel closed after the terminal event.
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("Failed to marshal sync event", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
