package rest

import (
	"net/http"

	"github.com/gorilla/schema"

	"storepilot/internal/agent"
)

// queryDecoder decodes URL query parameters into tagged structs. A single
// decoder is safe for concurrent use.
var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// ReplicaListResponse wraps the replica listing.
type ReplicaListResponse struct {
	Items []agent.Replica `json:"items"`
	Count int             `json:"count"`
}

func (h *Handler) handleListReplicas(w http.ResponseWriter, r *http.Request) {
	var q ListReplicasQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid query parameters")
		return
	}
	if err := validateQuery(&q); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	if !h.agentOrError(w) {
		return
	}

	items, err := h.agent.ListReplicas(r.Context(), q.Type)
	if err != nil {
		writeInternalError(w, err, "Failed to list replicas")
		return
	}
	if items == nil {
		items = []agent.Replica{}
	}

	writeJSON(w, http.StatusOK, ReplicaListResponse{Items: items, Count: len(items)})
}

// KnowledgeBaseListResponse wraps the knowledge-base listing of one replica.
type KnowledgeBaseListResponse struct {
	ReplicaUUID string                     `json:"replicaUuid"`
	Items       []agent.KnowledgeBaseEntry `json:"items"`
	Count       int                        `json:"count"`
}

func (h *Handler) handleListKnowledgeBases(w http.ResponseWriter, r *http.Request) {
	var q ListKnowledgeBasesQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid query parameters")
		return
	}
	if err := validateQuery(&q); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	if !h.agentOrError(w) {
		return
	}

	items, err := h.agent.ListKnowledgeBases(r.Context(), q.Replica)
	if err != nil {
		writeInternalError(w, err, "Failed to list knowledge bases")
		return
	}
	if items == nil {
		items = []agent.KnowledgeBaseEntry{}
	}

	writeJSON(w, http.StatusOK, KnowledgeBaseListResponse{
		ReplicaUUID: q.Replica,
		Items:       items,
		Count:       len(items),
	})
}
