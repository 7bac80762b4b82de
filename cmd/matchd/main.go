package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"matchday/internal/api"
	"matchday/internal/config"
	"matchday/internal/store"
)

func main() {
	// Load .env before reading any configuration.
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			// No .env is fine; environment variables still apply.
		}
	}

	configPath := flag.String("config", "", "optional tuning file (YAML); falls back to MATCHDAY_CONFIG")
	pretty := flag.Bool("pretty", false, "human-readable console logs instead of JSON")
	flag.Parse()

	log := newLogger(*pretty)
	log.Info().Msg("matchd - match simulation daemon")

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	log.Info().
		Int("port", cfg.Server.Port).
		Str("db", cfg.Store.DBPath).
		Int("halfMinutes", cfg.Sim.HalfMinutes).
		Bool("trace", cfg.Sim.Trace).
		Msg("configuration loaded")
	if cfg.Server.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN not set - simulation endpoints disabled")
	}

	archive, err := store.Open(cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open match archive")
	}
	defer archive.Close()

	// Debug server (pprof + prometheus), localhost only.
	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		debugCfg.Enabled = false
	}
	if err := api.StartDebugServer(debugCfg, log); err != nil {
		log.Warn().Err(err).Msg("debug server disabled")
	}

	// JSONL event journal for live matches, disabled by an empty dir.
	var journal *store.EventJournal
	if dir := cfg.Store.EventLogDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("create event log dir")
		}
		journal = store.NewEventJournal()
		if err := journal.Start(filepath.Join(dir, "live_events.jsonl")); err != nil {
			log.Fatal().Err(err).Msg("open event journal")
		}
		defer journal.Stop()
	}

	telemetry := api.NewPromTelemetry()
	live := api.NewLiveRunner(archive, journal, telemetry, log)
	server := api.NewServer(cfg, archive, live, telemetry, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	// Wait for shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("matchd ready")
	<-quit

	log.Info().Msg("shutting down")
	server.Stop()
}

func newLogger(pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
