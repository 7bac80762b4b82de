// Package config provides centralized configuration management.
// This is the single source of truth for all service settings.
//
// Engine tuning constants are deliberately NOT here: the simulation model is
// compiled, and a plan plus a seed must reproduce the same match on every
// box regardless of local configuration.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// HTTP SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	AdminToken     string `mapstructure:"admin_token"`      // empty disables the admin endpoints
	RequestsPerMin int    `mapstructure:"requests_per_min"` // per-client rate limit across the API
	MaxFeedClients int    `mapstructure:"max_feed_clients"` // hard cap on concurrent live-feed sockets
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		RequestsPerMin: 120,
		MaxFeedClients: 200,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if t := os.Getenv("ADMIN_TOKEN"); t != "" {
		cfg.AdminToken = t
	}
	if rpm := getEnvInt("RATE_LIMIT_RPM", 0); rpm > 0 {
		cfg.RequestsPerMin = rpm
	}
	if mc := getEnvInt("MAX_FEED_CLIENTS", 0); mc > 0 {
		cfg.MaxFeedClients = mc
	}

	return cfg
}

// =============================================================================
// MATCH ARCHIVE CONFIGURATION
// =============================================================================

// StoreConfig holds match archive settings.
type StoreConfig struct {
	DBPath      string `mapstructure:"db_path"`       // sqlite file; ":memory:" for ephemeral runs
	EventLogDir string `mapstructure:"event_log_dir"` // per-match JSONL event logs; empty disables them
}

// DefaultStore returns the default store configuration.
func DefaultStore() StoreConfig {
	return StoreConfig{
		DBPath:      "matchday.db",
		EventLogDir: "event_logs",
	}
}

// StoreFromEnv returns store configuration with environment variable
// overrides.
func StoreFromEnv() StoreConfig {
	cfg := DefaultStore()

	if p := os.Getenv("DB_PATH"); p != "" {
		cfg.DBPath = p
	}
	if d, ok := os.LookupEnv("EVENT_LOG_DIR"); ok {
		cfg.EventLogDir = d
	}

	return cfg
}

// =============================================================================
// SIMULATION DEFAULTS
// =============================================================================

// SimConfig holds defaults applied to plans that leave fields unset. It
// never overrides anything a submitted plan specifies.
type SimConfig struct {
	HalfMinutes int  `mapstructure:"half_minutes"` // half length for quick simulations
	Difficulty  int  `mapstructure:"difficulty"`   // AI difficulty 1-100 for both sides
	Trace       bool `mapstructure:"trace"`        // capture position traces by default
	Workers     int  `mapstructure:"workers"`      // batch simulation worker pool size
}

// DefaultSim returns the default simulation settings.
func DefaultSim() SimConfig {
	return SimConfig{
		HalfMinutes: 45,
		Difficulty:  50,
		Workers:     4,
	}
}

// SimFromEnv returns simulation settings with environment variable
// overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if m := getEnvInt("SIM_HALF_MINUTES", 0); m > 0 {
		cfg.HalfMinutes = m
	}
	if d := getEnvInt("SIM_DIFFICULTY", 0); d > 0 && d <= 100 {
		cfg.Difficulty = d
	}
	if os.Getenv("SIM_TRACE") == "true" {
		cfg.Trace = true
	}
	if w := getEnvInt("SIM_WORKERS", 0); w > 0 {
		cfg.Workers = w
	}

	return cfg
}

// =============================================================================
// REPLAY RENDERING CONFIGURATION
// =============================================================================

// ReplayConfig holds replay frame rendering settings.
type ReplayConfig struct {
	Width  int `mapstructure:"width"`  // frame width in pixels
	Height int `mapstructure:"height"` // frame height in pixels
}

// DefaultReplay returns the default replay rendering configuration.
func DefaultReplay() ReplayConfig {
	return ReplayConfig{
		Width:  1280,
		Height: 720,
	}
}

// ReplayFromEnv returns replay rendering configuration with environment
// variable overrides.
func ReplayFromEnv() ReplayConfig {
	cfg := DefaultReplay()

	if w := getEnvInt("REPLAY_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("REPLAY_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Sim    SimConfig    `mapstructure:"sim"`
	Replay ReplayConfig `mapstructure:"replay"`
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Store:  StoreFromEnv(),
		Sim:    SimFromEnv(),
		Replay: ReplayFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
