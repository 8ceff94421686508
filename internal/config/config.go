package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string

	AgentsFile string
	WhiteAgent string
	BlackAgent string

	AgentTimeout  time.Duration
	MoveDelay     time.Duration
	GameDelay     time.Duration
	ErrorCooldown time.Duration
	MaxPlies      int
	RandomSeed    int64

	RedisURL     string
	DatabaseURL  string
	HistoryLimit int

	MessageOverrideDir string
	StockfishPath      string

	OpeningsFile  string
	OpeningsOrder string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:      ":8080",
		WhiteAgent:    "white",
		BlackAgent:    "black",
		AgentTimeout:  30 * time.Second,
		MoveDelay:     time.Second,
		GameDelay:     5 * time.Second,
		ErrorCooldown: 5 * time.Second,
		MaxPlies:      600,
		HistoryLimit:  20,
		OpeningsOrder: "sequential",
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.AgentsFile = strings.TrimSpace(os.Getenv("AGENTS_FILE"))
	if v := strings.TrimSpace(os.Getenv("WHITE_AGENT")); v != "" {
		cfg.WhiteAgent = v
	}
	if v := strings.TrimSpace(os.Getenv("BLACK_AGENT")); v != "" {
		cfg.BlackAgent = v
	}

	var err error
	if cfg.AgentTimeout, err = durationEnv("AGENT_TIMEOUT", cfg.AgentTimeout); err != nil {
		return nil, err
	}
	if cfg.MoveDelay, err = durationEnv("MOVE_DELAY", cfg.MoveDelay); err != nil {
		return nil, err
	}
	if cfg.GameDelay, err = durationEnv("GAME_DELAY", cfg.GameDelay); err != nil {
		return nil, err
	}
	if cfg.ErrorCooldown, err = durationEnv("ERROR_COOLDOWN", cfg.ErrorCooldown); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(os.Getenv("MAX_PLIES")); v != "" {
		// 0 turns the cap off
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxPlies = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RANDOM_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RandomSeed = n
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}

	cfg.MessageOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))
	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))

	cfg.OpeningsFile = strings.TrimSpace(os.Getenv("OPENINGS_FILE"))
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("OPENINGS_ORDER"))); v != "" {
		if v != "sequential" && v != "random" {
			return nil, errors.New("OPENINGS_ORDER must be sequential or random")
		}
		cfg.OpeningsOrder = v
	}

	if cfg.AgentTimeout <= 0 {
		return nil, errors.New("AGENT_TIMEOUT must be positive")
	}

	return cfg, nil
}

// durationEnv accepts Go durations ("750ms", "2s") or bare seconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, errors.New(key + " must not be negative")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.New(key + ": " + err.Error())
	}
	if d < 0 {
		return 0, errors.New(key + " must not be negative")
	}
	return d, nil
}
