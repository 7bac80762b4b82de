package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"matchday/internal/config"
	"matchday/internal/match"
	"matchday/internal/store"
)

// Server is the HTTP API server with the live-feed WebSocket attached.
type Server struct {
	router      *chi.Mux
	hub         *FeedHub
	live        LiveInterface
	rateLimiter *IPRateLimiter
	log         zerolog.Logger
	addr        string
}

// NewServer wires the archive, live runner and feed hub behind one router.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(cfg config.AppConfig, archive *store.Store, live LiveInterface, telemetry match.Telemetry, log zerolog.Logger) *Server {
	s := &Server{
		hub:  NewFeedHub(cfg.Server.MaxFeedClients, nil, log),
		live: live,
		log:  log,
		addr: ":" + strconv.Itoa(cfg.Server.Port),
	}

	// Per-minute config maps onto the limiter's per-second window.
	s.rateLimiter = NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: float64(cfg.Server.RequestsPerMin) / 60,
		Burst:             cfg.Server.RequestsPerMin / 4,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})

	s.router = NewRouter(RouterConfig{
		Archive:     archive,
		Live:        live,
		Sim:         cfg.Sim,
		Telemetry:   telemetry,
		AdminToken:  cfg.Server.AdminToken,
		RateLimiter: s.rateLimiter,
		Log:         log,
	})

	// The feed endpoint needs the hub instance, so it cannot live in the
	// pure NewRouter factory.
	s.router.Get("/ws", s.hub.HandleWebSocket)

	return s
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
//
// Call this method only once. To stop the server, signal the process.
func (s *Server) Start() error {
	go s.hub.Run()
	s.hub.StartBroadcastLoop(s.live)

	s.log.Info().Str("addr", s.addr).Msg("API server starting")
	return http.ListenAndServe(s.addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.live.Stop()
}
