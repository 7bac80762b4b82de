package api

import (
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"matchday/internal/match"
)

// Metrics with bounded cardinality (no per-player labels to prevent DoS)
var (
	// Simulation metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005},
	})

	matchesSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matches_simulated_total",
		Help: "Matches run to full time",
	})

	matchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_events_total",
		Help: "Match record entries by kind",
	}, []string{"kind"}) // Bounded: the EventKind enum

	ballLaunchSpeed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ball_launch_speed_ms",
		Help:    "Ball speed at each kick, in meters per second",
		Buckets: []float64{5, 10, 15, 20, 25, 30, 40},
	})

	ownershipChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ball_ownership_changes_total",
		Help: "Ball owner transitions resolved",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active live-feed connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total live-feed messages sent",
	})
)

// PromTelemetry adapts the engine's telemetry sink onto the prometheus
// metrics above. The sink is explicit and handed to the engine at
// construction; there is no ambient collector inside the simulation.
type PromTelemetry struct {
	lastTick time.Time
}

// NewPromTelemetry returns a sink ready to pass to match.WithTelemetry.
func NewPromTelemetry() *PromTelemetry {
	return &PromTelemetry{lastTick: time.Now()}
}

// TickDone observes the wall time since the previous tick completed.
func (t *PromTelemetry) TickDone(uint32) {
	now := time.Now()
	tickDuration.Observe(now.Sub(t.lastTick).Seconds())
	t.lastTick = now
}

// BallLaunched observes a kick's realized speed.
func (t *PromTelemetry) BallLaunched(_ match.ActionKind, speedMS float64) {
	ballLaunchSpeed.Observe(speedMS)
}

// OwnershipChanged counts resolver transitions.
func (t *PromTelemetry) OwnershipChanged(int8, int8) {
	ownershipChanges.Inc()
}

// EventRecorded counts record entries by kind.
func (t *PromTelemetry) EventRecorded(kind match.EventKind) {
	matchEvents.WithLabelValues(kind.String()).Inc()
}

// RecordMatchDone counts a completed simulation.
func RecordMatchDone() {
	matchesSimulated.Inc()
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates the live-feed connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments the live-feed message counter.
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST stay on localhost in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// StartDebugServer starts the internal observability server.
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS.
func StartDebugServer(cfg ObservabilityConfig, log zerolog.Logger) error {
	if !cfg.Enabled {
		log.Info().Msg("debug server disabled")
		return nil
	}

	// SECURITY: Validate address is localhost
	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		// Only allow external binding if explicitly enabled via env
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Warn().Str("addr", cfg.ListenAddr).Msg("debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Optional basic auth wrapper
	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("debug server starting (pprof + metrics)")
		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Warn().Err(err).Msg("debug server error")
		}
	}()

	return nil
}

// basicAuthMiddleware adds basic authentication to the handler.
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
