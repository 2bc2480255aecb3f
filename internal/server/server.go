// Package server exposes the watch-mode HTTP endpoints: health, last run
// status, the current snapshot, Prometheus metrics and a websocket feed of
// delivered notifications.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/match"
	"github.com/pfrederiksen/worldcup-events/internal/runner"
)

// StatusSource reports the outcome of the latest run.
type StatusSource interface {
	LastSummary() *runner.Summary
	Snapshot() *match.Snapshot
}

// Config configures the server.
type Config struct {
	Addr     string
	Version  string
	Status   StatusSource
	Hub      *Hub
	Gatherer prometheus.Gatherer
	Logger   *logger.Logger
}

// Server serves the watch-mode endpoints.
type Server struct {
	cfg        Config
	started    time.Time
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New creates a server. A nil Gatherer serves the default registry.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Hub == nil {
		cfg.Hub = NewHub(cfg.Logger)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:     cfg,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.cfg.Logger.Info("Status server listening", logger.Fields{"addr": s.cfg.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects websocket clients and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cfg.Hub.closeAll()
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.cfg.Version,
		"time":    time.Now().Unix(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var last *runner.Summary
	if s.cfg.Status != nil {
		last = s.cfg.Status.LastSummary()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lastRun": last,
		"clients": s.cfg.Hub.Clients(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot *match.Snapshot
	if s.cfg.Status != nil {
		snapshot = s.cfg.Status.Snapshot()
	}
	if snapshot == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot yet"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.cfg.Logger.Warn("Websocket upgrade failed", logger.Fields{"error": err.Error()})
		return
	}

	c := &client{hub: s.cfg.Hub, conn: conn, send: make(chan []byte, sendBuffer)}
	welcome, _ := json.Marshal(FeedMessage{Type: "connected", Timestamp: time.Now().Unix()})
	c.send <- welcome
	s.cfg.Hub.register(c)

	go c.writePump()
	go c.readPump()
}
