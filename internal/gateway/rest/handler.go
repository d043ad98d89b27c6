// Package rest exposes the storefront sync and diagnostics API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storepilot/internal/agent"
	"storepilot/internal/catalog"
)

// CatalogService is the storefront surface the handlers depend on.
type CatalogService interface {
	TestConnection(ctx context.Context, creds catalog.Credentials) catalog.ConnectionStatus
	GetProductCount(ctx context.Context, creds catalog.Credentials) (int, error)
	GetAllProducts(ctx context.Context, creds catalog.Credentials) ([]catalog.RawProduct, error)
}

// Handler holds the shared, immutable dependencies of the REST API.
// Per-request state (orchestrators, event channels) is constructed inside
// each handler, so concurrent requests share nothing mutable.
type Handler struct {
	catalog CatalogService
	agent   agent.Service // nil when no platform API key is configured
	logger  *slog.Logger
}

// NewHandler creates the REST handler. agentSvc may be nil; endpoints that
// need the agent platform then answer 500.
func NewHandler(catalogSvc CatalogService, agentSvc agent.Service, logger *slog.Logger) *Handler {
	if catalogSvc == nil {
		panic("catalog service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		catalog: catalogSvc,
		agent:   agentSvc,
		logger:  logger.With("component", "rest"),
	}
}

// Default body size limit
const (
	DefaultMaxBodySize = 64 << 10 // 64KB; requests carry only credentials
)

// Default request timeouts
const (
	DefaultRequestTimeout = 30 * time.Second
	LongRequestTimeout    = 120 * time.Second // debug endpoints fetch whole catalogs
)

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeAgentUnavailable = "AGENT_UNAVAILABLE"
	ErrCodeUpstreamError    = "UPSTREAM_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// writeInternalError writes an internal error response, but first checks if
// the error is due to client cancellation (499 instead of 500).
func writeInternalError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, context.Canceled) {
		w.WriteHeader(499) // Client Closed Request
		return
	}
	slog.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// agentOrError rejects the request when no agent platform key is configured.
func (h *Handler) agentOrError(w http.ResponseWriter) bool {
	if h.agent == nil {
		writeError(w, http.StatusInternalServerError, ErrCodeAgentUnavailable,
			"Agent platform API key is not configured")
		return false
	}
	return true
}

// RegisterRoutes registers all REST routes.
// Note: Request ID and panic recovery are handled by the server middleware.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Sync stream. No timeout wrapper: the response stays open for the
	// whole pipeline and ends when the terminal event is sent.
	mux.HandleFunc("POST /api/shopify/sync", maxBodySize(h.handleSync, DefaultMaxBodySize))

	// Debug endpoints: synchronous JSON diagnostics, not part of the
	// production contract.
	mux.HandleFunc("POST /api/debug/connection", withTimeout(maxBodySize(h.handleDebugConnection, DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("POST /api/debug/products", withTimeout(maxBodySize(h.handleDebugProducts, DefaultMaxBodySize), LongRequestTimeout))
	mux.HandleFunc("POST /api/debug/format", withTimeout(maxBodySize(h.handleDebugFormat, DefaultMaxBodySize), LongRequestTimeout))

	// Agent platform passthroughs
	mux.HandleFunc("GET /api/replicas", withTimeout(h.handleListReplicas, DefaultRequestTimeout))
	mux.HandleFunc("GET /api/knowledge-bases", withTimeout(h.handleListKnowledgeBases, DefaultRequestTimeout))

	// Health Check (no auth, minimal timeout)
	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
}
