package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearServiceEnv blanks every variable the loader reads so ambient CI
// environments cannot leak into assertions.
func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ADMIN_TOKEN", "RATE_LIMIT_RPM", "MAX_FEED_CLIENTS",
		"DB_PATH", "SIM_HALF_MINUTES", "SIM_DIFFICULTY", "SIM_TRACE",
		"SIM_WORKERS", "REPLAY_WIDTH", "REPLAY_HEIGHT", "MATCHDAY_CONFIG",
	} {
		t.Setenv(key, "")
	}
	if old, ok := os.LookupEnv("EVENT_LOG_DIR"); ok {
		t.Cleanup(func() { os.Setenv("EVENT_LOG_DIR", old) })
		os.Unsetenv("EVENT_LOG_DIR")
	}
}

// TestLoadDefaults verifies a clean environment yields the documented
// defaults.
func TestLoadDefaults(t *testing.T) {
	clearServiceEnv(t)
	cfg := Load()
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.RequestsPerMin != 120 {
		t.Errorf("rate limit = %d, want 120", cfg.Server.RequestsPerMin)
	}
	if cfg.Store.DBPath != "matchday.db" {
		t.Errorf("db path = %q, want matchday.db", cfg.Store.DBPath)
	}
	if cfg.Sim.HalfMinutes != 45 || cfg.Sim.Trace {
		t.Errorf("sim defaults = %+v, want 45-minute halves without trace", cfg.Sim)
	}
	if cfg.Replay.Width != 1280 || cfg.Replay.Height != 720 {
		t.Errorf("replay size = %dx%d, want 1280x720", cfg.Replay.Width, cfg.Replay.Height)
	}
}

// TestLoadEnvOverrides verifies environment variables take precedence over
// defaults and junk values are ignored.
func TestLoadEnvOverrides(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("PORT", "4100")
	t.Setenv("SIM_HALF_MINUTES", "7")
	t.Setenv("SIM_TRACE", "true")
	t.Setenv("EVENT_LOG_DIR", "")
	t.Setenv("REPLAY_WIDTH", "notanumber")

	cfg := Load()
	if cfg.Server.Port != 4100 {
		t.Errorf("port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Sim.HalfMinutes != 7 || !cfg.Sim.Trace {
		t.Errorf("sim = %+v, want 7-minute traced halves", cfg.Sim)
	}
	if cfg.Store.EventLogDir != "" {
		t.Errorf("event log dir = %q, want disabled", cfg.Store.EventLogDir)
	}
	if cfg.Replay.Width != 1280 {
		t.Errorf("junk REPLAY_WIDTH changed width to %d", cfg.Replay.Width)
	}
}

// TestLoadFileOverlay verifies a tuning file wins over the environment for
// the keys it sets and leaves everything else alone.
func TestLoadFileOverlay(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("PORT", "4100")

	path := filepath.Join(t.TempDir(), "matchday.yaml")
	body := "server:\n  port: 9999\nsim:\n  half_minutes: 10\n  trace: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want the file's 9999", cfg.Server.Port)
	}
	if cfg.Sim.HalfMinutes != 10 || !cfg.Sim.Trace {
		t.Errorf("sim = %+v, want the file's 10-minute traced halves", cfg.Sim)
	}
	if cfg.Store.DBPath != "matchday.db" {
		t.Errorf("db path = %q, file overlay touched an unset key", cfg.Store.DBPath)
	}
}

// TestLoadFileMissingIsFine verifies an absent tuning file falls back to
// the environment configuration without error.
func TestLoadFileMissingIsFine(t *testing.T) {
	clearServiceEnv(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile on a missing file: %v", err)
	}
	if cfg.Server.Port != DefaultServer().Port {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

// TestLoadFileRejectsGarbage verifies a malformed file is reported.
func TestLoadFileRejectsGarbage(t *testing.T) {
	clearServiceEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a: map"), 0o644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile accepted a malformed tuning file")
	}
}
