package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultRounds != 3 || cfg.MaxPlayers != 8 {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_PLAYERS", "4")
	t.Setenv("ROUND_SECONDS", "30")
	t.Setenv("DB_MAX_OPEN_CONNS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":9090" {
		t.Fatalf("expected :9090, got %s", cfg.Addr())
	}
	if cfg.MaxPlayers != 4 {
		t.Fatalf("expected max players 4, got %d", cfg.MaxPlayers)
	}
	if cfg.RoundDuration() != 30*time.Second {
		t.Fatalf("expected 30s round duration, got %s", cfg.RoundDuration())
	}
	if cfg.DBMaxOpenConns != Default().DBMaxOpenConns {
		t.Fatalf("expected non-positive override to keep default, got %d", cfg.DBMaxOpenConns)
	}
}

func TestLoadRejectsMalformedNumber(t *testing.T) {
	t.Setenv("MAX_ROUNDS", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DEFAULT_ROUNDS=7\nMAX_ROUNDS=9\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("DEFAULT_ROUNDS", "5")
	t.Setenv("MAX_ROUNDS", "")
	os.Unsetenv("MAX_ROUNDS")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MAX_ROUNDS") })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultRounds != 5 {
		t.Fatalf("expected existing env to win, got %d", cfg.DefaultRounds)
	}
	if cfg.MaxRounds != 9 {
		t.Fatalf("expected dotenv value 9, got %d", cfg.MaxRounds)
	}
}
