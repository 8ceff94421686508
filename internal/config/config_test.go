package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "AGENTS_FILE", "WHITE_AGENT", "BLACK_AGENT", "AGENT_TIMEOUT", "MOVE_DELAY", "GAME_DELAY", "ERROR_COOLDOWN", "MAX_PLIES", "RANDOM_SEED", "REDIS_URL", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.AgentTimeout != 30*time.Second || cfg.MaxPlies != 600 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.WhiteAgent != "white" || cfg.BlackAgent != "black" {
		t.Fatalf("unexpected agent ids: %q %q", cfg.WhiteAgent, cfg.BlackAgent)
	}
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("AGENT_TIMEOUT", "12")
	t.Setenv("MOVE_DELAY", "250ms")
	t.Setenv("GAME_DELAY", "0")
	t.Setenv("RANDOM_SEED", "42")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AgentTimeout != 12*time.Second {
		t.Fatalf("AgentTimeout=%v", cfg.AgentTimeout)
	}
	if cfg.MoveDelay != 250*time.Millisecond {
		t.Fatalf("MoveDelay=%v", cfg.MoveDelay)
	}
	if cfg.GameDelay != 0 {
		t.Fatalf("GameDelay=%v", cfg.GameDelay)
	}
	if cfg.RandomSeed != 42 {
		t.Fatalf("RandomSeed=%d", cfg.RandomSeed)
	}
}

func TestLoadMaxPliesZeroDisablesCap(t *testing.T) {
	t.Setenv("MAX_PLIES", "0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxPlies != 0 {
		t.Fatalf("MaxPlies=%d want 0", cfg.MaxPlies)
	}

	t.Setenv("MAX_PLIES", "-3")
	if cfg, _ = Load(); cfg.MaxPlies != 600 {
		t.Fatalf("negative MAX_PLIES should keep default, got %d", cfg.MaxPlies)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("AGENT_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed AGENT_TIMEOUT")
	}
	t.Setenv("AGENT_TIMEOUT", "-3")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative AGENT_TIMEOUT")
	}
}

func TestLoadOpenings(t *testing.T) {
	t.Setenv("AGENT_TIMEOUT", "")
	t.Setenv("OPENINGS_FILE", " openings.epd ")
	t.Setenv("OPENINGS_ORDER", "Random")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpeningsFile != "openings.epd" || cfg.OpeningsOrder != "random" {
		t.Fatalf("openings=%q order=%q", cfg.OpeningsFile, cfg.OpeningsOrder)
	}

	t.Setenv("OPENINGS_ORDER", "shuffle")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown OPENINGS_ORDER")
	}
}
