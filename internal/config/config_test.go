package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Game.Seed != nil || cfg.Game.PollMs != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigDecodesGameSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[game]
seed = 42
poll-ms = 50
reset-ms = 250
log-file = "/tmp/calcrush.log"
log-level = "debug"
recent = 3
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	g := cfg.Game
	if g.Seed == nil || *g.Seed != 42 {
		t.Fatalf("unexpected seed: %v", g.Seed)
	}
	if g.PollMs == nil || *g.PollMs != 50 || g.ResetMs == nil || *g.ResetMs != 250 {
		t.Fatalf("unexpected timings: %+v", g)
	}
	if g.LogFile == nil || *g.LogFile != "/tmp/calcrush.log" || g.LogLevel == nil || *g.LogLevel != "debug" {
		t.Fatalf("unexpected logging settings: %+v", g)
	}
	if g.Recent == nil || *g.Recent != 3 {
		t.Fatalf("unexpected recent: %v", g.Recent)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[game]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDefaultPathsHonorXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	if got := DefaultConfigPath(); got != filepath.Join(dir, "calcrush", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "calcrush", "calcrush.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}
