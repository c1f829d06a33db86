// Package httpapi wires the relay's external HTTP/WebSocket surface onto
// internal/connengine and internal/relaystate: the upgrade handler at
// GET /api/v1/relay/, the file-meta/ping/debug-state side endpoints, and the
// health envelope. None of this is part of the connection engine itself,
// matching SPEC_FULL.md §1's "HTTP router wiring, the upgrade handshake
// itself, CORS... are out of scope for the core."
package httpapi

import (
	"context"
	"net/http"
	"time"

	alog "github.com/anacrolix/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/dannyzb/filerelay/internal/connengine"
	"github.com/dannyzb/filerelay/internal/metrics"
	"github.com/dannyzb/filerelay/internal/queue"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

// Server holds the shared dependencies every handler needs.
type Server struct {
	State     *relaystate.State
	Logger    alog.Logger
	Started   time.Time
	Env       string
	limiter   *rate.Limiter
	upgrader  websocket.Upgrader
}

// NewServer builds a Server. acceptRate and acceptBurst configure the
// per-process accept-rate limiter guarding the upgrade endpoint; see
// SPEC_FULL.md §12.
func NewServer(state *relaystate.State, logger alog.Logger, env string, acceptRate rate.Limit, acceptBurst int) *Server {
	return &Server{
		State:   state,
		Logger:  logger,
		Started: time.Now(),
		Env:     env,
		limiter: rate.NewLimiter(acceptRate, acceptBurst),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes registers every handler on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/relay/", s.withCORS(s.handleRelayRoot))
	mux.HandleFunc("/api/v1/relay/file-meta/", s.withCORS(s.handleFileMeta))
	mux.HandleFunc("/api/v1/relay/ping", s.withCORS(s.handlePing))
	mux.HandleFunc("/api/v1/relay/debug/state", s.withCORS(s.handleDebugState))
	mux.HandleFunc("/health", s.withCORS(s.handleHealth))
	mux.Handle("/metrics", metrics.Handler())
}

func (s *Server) withCORS(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}

// handleRelayRoot upgrades the connection and starts its three tasks. It is
// the only entry point into internal/connengine: everything downstream of
// here treats the socket, queue and state as already wired, matching the
// dependency order in SPEC_FULL.md §2.
func (s *Server) handleRelayRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/relay/" {
		http.NotFound(w, r)
		return
	}

	peerID := r.URL.Query().Get("id")
	if peerID == "" {
		http.Error(w, "missing required query parameter \"id\"", http.StatusBadRequest)
		return
	}

	if !s.limiter.Allow() {
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.WithDefaultLevel(alog.Debug).Printf("upgrade failed for id=%s: %v", peerID, err)
		return
	}

	q := queue.New()
	s.State.AddPeer(peerID, q)
	metrics.ConnectionsOpened.Inc()
	metrics.ActiveConnections.Inc()

	// r.Context() is cancelled the instant this handler returns (net/http's
	// contract for hijacked connections), but the relay connection's
	// lifetime is governed entirely by its own reader/writer/heartbeat, not
	// by the upgrade request — so it runs against a detached context.
	c := connengine.New(peerID, conn, q, s.State, s.Logger, nil)
	go func() {
		defer metrics.ActiveConnections.Dec()
		defer conn.Close()
		c.Run(context.Background())
	}()
}
