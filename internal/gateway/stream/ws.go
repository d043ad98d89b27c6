// Package stream serves sync progress over WebSocket for clients that
// cannot consume Server-Sent Events.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"storepilot/internal/agent"
	"storepilot/internal/catalog"
	"storepilot/internal/sync"
)

const (
	// writeWait is the time allowed to write one message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// startWait is the time allowed for the client to send the start
	// message after the connection opens.
	startWait = 30 * time.Second

	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the HTTP server's CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StartMessage is the first and only message the client sends. It carries
// the storefront credentials and an optional product filter.
type StartMessage struct {
	Domain      string `json:"domain"`
	AccessToken string `json:"accessToken"`
	Filter      string `json:"filter"`
}

// Server upgrades sync requests to WebSocket connections and streams the
// pipeline's events over them.
type Server struct {
	catalog sync.CatalogService
	agent   agent.Service
	logger  *slog.Logger
}

// NewServer creates the WebSocket stream server. agentSvc may be nil; syncs
// then terminate with an error event once the pipeline reaches the upload.
func NewServer(catalogSvc sync.CatalogService, agentSvc agent.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		catalog: catalogSvc,
		agent:   agentSvc,
		logger:  logger.With("component", "stream"),
	}
}

// HandleSync upgrades the connection, reads the start message, runs one
// sync and writes each event as a JSON text message. The connection closes
// after the terminal event.
func (s *Server) HandleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	start, err := s.readStart(conn)
	if err != nil {
		s.logger.Warn("Invalid start message", "error", err)
		s.closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	if start.Filter != "" {
		if _, err := catalog.CompileFilter(start.Filter); err != nil {
			s.closeWith(conn, websocket.ClosePolicyViolation,
				"invalid filter expression: "+err.Error())
			return
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: the client sends nothing more, but reading is what
	// surfaces pongs and close frames. Any read error ends the sync.
	go func() {
		defer cancel()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	orch := sync.NewOrchestrator(s.catalog, s.agent, s.logger)
	events := orch.Run(ctx, sync.Request{
		Credentials: catalog.Credentials{
			Domain:      start.Domain,
			AccessToken: start.AccessToken,
		},
		Filter: start.Filter,
	})

	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pinger.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case ev, ok := <-events:
			if !ok {
				s.closeWith(conn, websocket.CloseNormalClosure, "sync complete")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("WebSocket write failed", "error", err)
				return
			}
		}
	}
}

// readStart reads and validates the client's start message.
func (s *Server) readStart(conn *websocket.Conn) (StartMessage, error) {
	var start StartMessage

	conn.SetReadDeadline(time.Now().Add(startWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return start, errStartTimeout
	}
	if err := json.Unmarshal(data, &start); err != nil {
		return start, errStartMalformed
	}
	if start.Domain == "" || start.AccessToken == "" {
		return start, errStartMissingCreds
	}
	return start, nil
}

// closeWith sends a close frame with the given code and reason. Control
// frame payloads cap at 125 bytes, which the code uses two of.
func (s *Server) closeWith(conn *websocket.Conn, code int, reason string) {
	if len(reason) > 120 {
		reason = reason[:120]
	}
	msg := websocket.FormatCloseMessage(code, reason)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, msg)
}
