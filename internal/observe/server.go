// Package observe implements the opt-in debug/observability server: a
// read-only mirror of one peer's own board for a developer's browser or
// an external presenter process. It is never part of the wire protocol
// between peers and has no bearing on simulation outcomes.
package observe

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arena/internal/board"
)

// SnapshotSource supplies the latest published board snapshot.
type SnapshotSource interface {
	AcquireRead() *board.BoardSnapshot
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://localhost" || origin == "http://127.0.0.1"
	},
}

// Metrics are the Prometheus collectors (one histogram, four gauges)
// that NewMetrics registers on the default registry served at /metrics.
type Metrics struct {
	TickDuration   prometheus.Histogram
	EntitiesAlive  prometheus.Gauge
	EventsPerTick  prometheus.Gauge
	ElixirPlayer1  prometheus.Gauge
	ElixirPlayer2  prometheus.Gauge
}

// NewMetrics registers and returns a fresh Metrics set.
func NewMetrics() *Metrics {
	m := &Metrics{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "arena_tick_duration_seconds",
			Help: "Wall-clock duration of a single simulation tick.",
		}),
		EntitiesAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_entities_alive",
			Help: "Number of active entities on the board.",
		}),
		EventsPerTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_events_drained_per_tick",
			Help: "Events drained from the timeline in the most recent tick.",
		}),
		ElixirPlayer1: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_elixir_player1",
			Help: "Player 1's current elixir.",
		}),
		ElixirPlayer2: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_elixir_player2",
			Help: "Player 2's current elixir.",
		}),
	}
	prometheus.MustRegister(m.TickDuration, m.EntitiesAlive, m.EventsPerTick, m.ElixirPlayer1, m.ElixirPlayer2)
	return m
}

// Server is the debug HTTP+WebSocket server.
type Server struct {
	source SnapshotSource
	router *chi.Mux
}

// NewServer builds a router that is safe to use with httptest: no
// goroutines are started, no listeners opened.
func NewServer(source SnapshotSource) *Server {
	s := &Server{source: source}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/snapshot", s.handleWSSnapshot)

	s.router = r
	return s
}

// Router returns the HTTP handler, for use with httptest or
// http.ListenAndServe.
func (s *Server) Router() http.Handler { return s.router }

// Start begins serving at addr. Blocks until the server exits.
func (s *Server) Start(addr string) error {
	log.Printf("observe: debug server listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleWSSnapshot(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("observe: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(40 * time.Millisecond) // ~25 Hz, matching tick rate
	defer ticker.Stop()

	for range ticker.C {
		snap := s.source.AcquireRead()
		data, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
