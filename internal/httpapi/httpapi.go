// Package httpapi serves a read-only introspection endpoint over the
// running simulation, grounded on fleet-service/cmd/main.go's router wiring
// (gorilla/mux plus a CORS middleware) and niceyeti-tabular's use of
// gorilla/websocket for pushing live updates to a connected client. This
// server never accepts writes: the simulation clock is driven exclusively
// by internal/engine, never by an HTTP request.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

// Snapshot is the periodic state summary broadcast to WebSocket clients and
// served from /snapshot, produced by internal/engine.
type Snapshot struct {
	SimTime       float64 `json:"sim_time"`
	VehicleCount  int     `json:"vehicle_count"`
	ActiveTasks   int     `json:"active_tasks"`
	BountyTasks   int     `json:"bounty_tasks"`
	GiniByParking float64 `json:"gini_by_parking"`
}

// Server is the debug HTTP+WebSocket introspection endpoint.
type Server struct {
	httpServer *http.Server

	mu       sync.Mutex
	latest   Snapshot
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

// New builds a Server listening on addr. fleet-service's corsMiddleware is
// hand-rolled; here that's replaced with rs/cors, one of the libraries the
// rest of the example pack uses for the same job.
func New(addr string) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)

	handler := cors.AllowAll().Handler(r)
	s.httpServer = &http.Server{Addr: addr, Handler: handler}
	return s
}

// ListenAndServe blocks until the server stops or errors; callers typically
// run it in an errgroup alongside the simulation loop.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server; ctx bounds how long it waits
// for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Publish records the latest snapshot and pushes it to every connected
// WebSocket client, best-effort — a write failure just drops that client.
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	body, err := json.Marshal(snap)
	if err != nil {
		slog.Error("marshal snapshot failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, body); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.latest
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		slog.Error("encode snapshot response failed", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()
}
