// Package server publishes committed display frames to WebSocket
// subscribers and exposes health and Prometheus metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dcsflight/cduocr/internal/flow"
	"github.com/dcsflight/cduocr/internal/version"
)

// Config holds the listen address.
type Config struct {
	Host string
	Port int
}

// Frame is the wire form of one committed result.
type Frame struct {
	Rows     []string           `json:"rows"`
	TimingMS map[string]float64 `json:"timing_ms,omitempty"`
	Time     time.Time          `json:"time"`
}

// statusResponse is the /status payload.
type statusResponse struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Clients int      `json:"clients"`
	Rows    []string `json:"rows,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Subscribers are local tooling; origin checks add nothing here.
		return true
	},
}

// Server fans committed frames out to WebSocket subscribers.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	lastFrame *Frame
}

// New creates a server; Run starts it.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Run serves until ctx is cancelled, consuming committed results and
// pushing them to every subscriber.
func (s *Server) Run(ctx context.Context, results <-chan flow.Result) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("publish server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			return fmt.Errorf("publish server failed: %w", err)
		case r, ok := <-results:
			if !ok {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
			s.Broadcast(r)
		}
	}
}

// Broadcast pushes one committed result to all connected subscribers and
// remembers it for late joiners.
func (s *Server) Broadcast(r flow.Result) {
	frame := &Frame{
		Rows:     r.Rows,
		TimingMS: make(map[string]float64, len(r.Timing)),
		Time:     time.Now().UTC(),
	}
	for stage, d := range r.Timing {
		frame.TimingMS[stage] = float64(d.Microseconds()) / 1000.0
	}
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("failed to marshal frame", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFrame = frame
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("dropping subscriber", "error", err)
			_ = conn.Close()
			delete(s.clients, conn)
			wsConnections.Dec()
			continue
		}
		wsFramesPushed.Inc()
	}
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	s.logger.Info("subscriber connected", "remote_addr", r.RemoteAddr)
	wsConnections.Inc()

	// The catch-up write happens under s.mu so it cannot interleave with a
	// Broadcast write on the same connection.
	s.mu.Lock()
	if s.lastFrame != nil {
		if data, err := json.Marshal(s.lastFrame); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}
	s.clients[conn] = true
	s.mu.Unlock()

	go s.readLoop(conn)
}

// readLoop drains the client side of a subscriber connection so pings and
// close frames are handled; subscribers never send payloads we act on.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.clients[conn] {
			delete(s.clients, conn)
			wsConnections.Dec()
		}
		s.mu.Unlock()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("subscriber read failed", "error", err)
			}
			return
		}
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := statusResponse{
		Status:  "ok",
		Version: version.Version,
		Clients: len(s.clients),
	}
	if s.lastFrame != nil {
		resp.Rows = s.lastFrame.Rows
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
