// Package server exposes a running match over HTTP: a websocket feed
// streaming world snapshots to spectators and a JSON status endpoint.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/world"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// SnapshotSource yields the current world snapshot. The session satisfies it.
type SnapshotSource interface {
	TakeSnapshot() world.Snapshot
}

// client buffers outbound frames so one slow spectator cannot stall the
// broadcast path.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Server streams snapshots to connected spectators.
type Server struct {
	src            SnapshotSource
	mapFingerprint uint64
	lg             log.Log

	httpServer *http.Server

	mu      sync.Mutex
	clients map[uuid.UUID]*client

	// last successfully broadcast snapshot; /status serves from here so
	// HTTP goroutines never touch the live world.
	lastMu   sync.RWMutex
	last     world.Snapshot
	haveLast bool
}

// New builds a snapshot server listening on addr. The map fingerprint is
// served on /status so clients can cache geometry across reconnects.
func New(addr string, src SnapshotSource, mapFingerprint uint64, lg log.Log) *Server {
	s := &Server{
		src:            src,
		mapFingerprint: mapFingerprint,
		lg:             lg,
		clients:        make(map[uuid.UUID]*client),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/status", s.handleStatus)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.lg.Info("snapshot server listening", log.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the listener down and drops all spectators.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	for _, c := range s.clients {
		close(c.send)
		_ = c.conn.Close()
	}
	s.clients = make(map[uuid.UUID]*client)
	s.mu.Unlock()
	return err
}

// Broadcast takes one snapshot, marshals it once, and fans it out. Clients
// whose buffers are full are dropped. Call it from the simulation goroutine
// only; it is the one place the server reads the live world.
func (s *Server) Broadcast() {
	snap := s.src.TakeSnapshot()
	payload, err := json.Marshal(snap)
	if err != nil {
		s.lg.Error("snapshot marshal failed", log.Err(err))
		return
	}

	s.lastMu.Lock()
	s.last = snap
	s.haveLast = true
	s.lastMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		select {
		case c.send <- payload:
		default:
			s.lg.Warn("dropping slow spectator", log.String("client_id", id.String()))
			delete(s.clients, id)
			close(c.send)
			_ = c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected spectators.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.lg.Warn("websocket upgrade failed", log.Err(err))
		return
	}

	c := &client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 8),
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.lg.Info("spectator connected",
		log.String("client_id", c.id.String()),
		log.String("remote", conn.RemoteAddr().String()))

	go s.writePump(c)
	go s.readPump(c)
}

// writePump drains the client's send buffer onto the wire.
func (s *Server) writePump(c *client) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.drop(c)
			return
		}
	}
}

// readPump discards inbound frames; its job is detecting disconnects.
func (s *Server) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, present := s.clients[c.id]
	if present {
		delete(s.clients, c.id)
		close(c.send)
	}
	s.mu.Unlock()
	if present {
		_ = c.conn.Close()
		s.lg.Info("spectator disconnected", log.String("client_id", c.id.String()))
	}
}

type statusResponse struct {
	RoundState     string  `json:"round_state"`
	Round          int     `json:"round"`
	ScoreAttack    int     `json:"score_attack"`
	ScoreDefend    int     `json:"score_defend"`
	RoundTimer     float64 `json:"round_timer"`
	Spectators     int     `json:"spectators"`
	MapFingerprint uint64  `json:"map_fingerprint"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.lastMu.RLock()
	snap, ready := s.last, s.haveLast
	s.lastMu.RUnlock()
	if !ready {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	resp := statusResponse{
		RoundState:     snap.RoundState,
		Round:          snap.RoundNumber,
		ScoreAttack:    snap.ScoreAttack,
		ScoreDefend:    snap.ScoreDefend,
		RoundTimer:     snap.RoundTimer,
		Spectators:     s.ClientCount(),
		MapFingerprint: s.mapFingerprint,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.lg.Warn("status encode failed", log.Err(err))
	}
}
