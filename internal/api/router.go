package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"matchday/internal/config"
	"matchday/internal/match"
	"matchday/internal/store"
)

// ArchiveInterface defines the match archive methods used by the API.
// This interface enables mocking for tests without opening a database.
// Keep this minimal - only include methods the API layer actually calls.
type ArchiveInterface interface {
	// SaveResult archives one finished match and returns its archive ID
	SaveResult(res match.MatchResult, plan match.MatchPlan) (uint, error)
	// GetMatch returns one archived match header
	GetMatch(id uint) (store.MatchRow, error)
	// ListMatches returns archived matches, newest first
	ListMatches(limit, offset int) ([]store.MatchRow, error)
	// EventsFor returns a match's timeline in emission order
	EventsFor(matchID uint) ([]store.EventRow, error)
	// StatsFor returns both stat blocks of a match, home first
	StatsFor(matchID uint) ([]store.TeamStatRow, error)
	// TraceFor returns a match's movement trace when captured
	TraceFor(matchID uint) (*match.Trace, error)
	// Standings folds the archive into a league table
	Standings() ([]store.StandingRow, error)
}

// LiveInterface defines the live-match runner methods used by the API.
type LiveInterface interface {
	// Start begins pacing a new live match
	Start(plan match.MatchPlan) error
	// Stop fast-forwards and archives the running match
	Stop()
	// Running reports whether a live match is in progress
	Running() bool
	// Status summarizes the runner for the status endpoint
	Status() map[string]interface{}
	// LatestSnapshot returns the newest published snapshot (may be nil)
	LatestSnapshot() *match.Snapshot
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Archive: memArchive,
//	    Live:    stubRunner,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Archive is the match store (required)
	Archive ArchiveInterface

	// Live is the live-match runner (required)
	Live LiveInterface

	// Sim supplies defaults applied to submitted plans
	Sim config.SimConfig

	// Telemetry is handed to engines constructed for submitted plans.
	// Nil means the no-op sink.
	Telemetry match.Telemetry

	// AdminToken guards the mutating endpoints. Empty disables them.
	AdminToken string

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of extra allowed CORS origins
	// besides localhost.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	// Log receives handler-level diagnostics.
	Log zerolog.Logger
}

// routerHandlers holds the handler dependencies for the router.
type routerHandlers struct {
	archive    ArchiveInterface
	live       LiveInterface
	sim        config.SimConfig
	telemetry  match.Telemetry
	adminToken string
	log        zerolog.Logger
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started (the rate limiter's cleanup goroutine
//     runs only when the caller did not pass one in)
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := append([]string{
		"http://localhost:*",
		"http://127.0.0.1:*",
	}, cfg.CORSOrigins...)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	telemetry := cfg.Telemetry
	if telemetry == nil {
		telemetry = match.NopTelemetry{}
	}

	// Create handlers struct
	h := &routerHandlers{
		archive:    cfg.Archive,
		live:       cfg.Live,
		sim:        cfg.Sim,
		telemetry:  telemetry,
		adminToken: cfg.AdminToken,
		log:        cfg.Log,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Archive
		r.Get("/matches", h.handleListMatches)
		r.Get("/matches/{id}", h.handleGetMatch)
		r.Get("/matches/{id}/events", h.handleGetEvents)
		r.Get("/matches/{id}/stats", h.handleGetStats)
		r.Get("/matches/{id}/trace", h.handleGetTrace)
		r.Get("/standings", h.handleStandings)

		// Simulation
		r.With(h.requireAdmin).Post("/matches", h.handleSimulate)

		// Live match control and observation
		r.Get("/live/status", h.handleLiveStatus)
		r.Get("/live/snapshot", h.handleLiveSnapshot)
		r.With(h.requireAdmin).Post("/live/start", h.handleLiveStart)
		r.With(h.requireAdmin).Post("/live/stop", h.handleLiveStop)

		// Health
		r.Get("/health", h.handleHealth)
	})

	return r
}
