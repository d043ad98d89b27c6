// Package gateway wires the REST API and the WebSocket stream transport
// onto one HTTP mux.
package gateway

import (
	"log/slog"
	"net/http"

	"storepilot/internal/agent"
	"storepilot/internal/gateway/rest"
	"storepilot/internal/gateway/stream"
)

// Server groups the two API surfaces: the REST handlers (including the SSE
// sync stream) and the WebSocket stream server.
type Server struct {
	rest   *rest.Handler
	stream *stream.Server
}

// New creates the gateway. agentSvc may be nil when no platform API key is
// configured; affected endpoints then answer with errors at request time.
func New(catalogSvc rest.CatalogService, agentSvc agent.Service, logger *slog.Logger) *Server {
	return &Server{
		rest:   rest.NewHandler(catalogSvc, agentSvc, logger),
		stream: stream.NewServer(catalogSvc, agentSvc, logger),
	}
}

// RegisterRoutes registers every API route on the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	s.rest.RegisterRoutes(mux)
	mux.HandleFunc("GET /api/shopify/sync/ws", s.stream.HandleSync)
}
