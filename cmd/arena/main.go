package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/cheese-arena/internal/agent"
	"github.com/park285/cheese-arena/internal/arena"
	appcfg "github.com/park285/cheese-arena/internal/config"
	"github.com/park285/cheese-arena/internal/history"
	"github.com/park285/cheese-arena/internal/msgcat"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/internal/render"
	"github.com/park285/cheese-arena/internal/state"
	"github.com/park285/cheese-arena/internal/web"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgs, err := msgcat.New(cfg.MessageOverrideDir)
	if err != nil {
		logger.Fatal("message_catalog_error", zap.Error(err))
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		logger.Fatal("agent_registry_error", zap.Error(err))
	}
	defer func() { _ = registry.Close() }()
	white, err := registry.Get(cfg.WhiteAgent)
	if err != nil {
		logger.Fatal("white_agent_error", zap.Error(err))
	}
	black, err := registry.Get(cfg.BlackAgent)
	if err != nil {
		logger.Fatal("black_agent_error", zap.Error(err))
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	repo, err := openHistory(ctx, cfg)
	if err != nil {
		logger.Fatal("history_init_error", zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	var book *arena.Book
	if cfg.OpeningsFile != "" {
		book, err = arena.LoadBook(cfg.OpeningsFile, cfg.OpeningsOrder, rand.New(rand.NewSource(seed+1)))
		if err != nil {
			logger.Fatal("openings_error", zap.Error(err))
		}
		logger.Info("openings_loaded", zap.Int("count", book.Len()), zap.String("order", cfg.OpeningsOrder))
	}

	store := state.NewStore()

	if cfg.RedisURL != "" {
		mirror, err := state.DialRedisMirror(ctx, cfg.RedisURL, obslog.Named("mirror"))
		if err != nil {
			logger.Fatal("redis_init_error", zap.Error(err))
		}
		defer func() { _ = mirror.Close() }()
		go mirror.Run(ctx, store)
	}

	arenaLog := obslog.Named("arena")
	applier := arena.NewApplier(rng, arenaLog)
	seq := arena.NewSequencer(white, black, applier, cfg.AgentTimeout, arenaLog)
	loop := arena.NewLoop(store, seq, arena.Resolver{MaxPlies: cfg.MaxPlies}, arena.Options{
		MoveDelay: cfg.MoveDelay,
		GameDelay: cfg.GameDelay,
		Book:      book,
		Archive:   repo,
		Messages:  msgs,
		Logger:    arenaLog,
	})
	supervisor := arena.NewSupervisor(loop, store, cfg.ErrorCooldown, msgs, arenaLog)

	server := web.New(store, repo, render.New(64), web.Options{
		HistoryLimit: cfg.HistoryLimit,
		Logger:       obslog.Named("web"),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe(ctx, cfg.HTTPAddr, 10*time.Second) }()

	logger.Info("arena_start",
		zap.String("white", white.Name()),
		zap.String("black", black.Name()),
		zap.Int64("seed", seed),
		zap.String("addr", cfg.HTTPAddr),
	)

	supervised := make(chan struct{})
	go func() {
		defer close(supervised)
		if err := supervisor.Run(ctx); err != nil {
			logger.Error("supervisor_exit", zap.Error(err))
		}
	}()

	if err := <-errCh; err != nil {
		logger.Error("http_server_error", zap.Error(err))
	}
	stop()

	// Let the current session archive before the repository closes.
	select {
	case <-supervised:
	case <-time.After(15 * time.Second):
		logger.Warn("supervisor_stop_timeout")
	}
	logger.Info("arena_stop")
}

func loadRegistry(cfg *appcfg.AppConfig) (*agent.Registry, error) {
	def := agent.Defaults{StockfishPath: cfg.StockfishPath, Timeout: cfg.AgentTimeout}
	if cfg.AgentsFile == "" {
		return agent.DefaultRegistry(def)
	}
	return agent.LoadRegistry(cfg.AgentsFile, def)
}

func openHistory(ctx context.Context, cfg *appcfg.AppConfig) (history.Repository, error) {
	if cfg.DatabaseURL == "" {
		return history.NewMemoryRepository(0), nil
	}
	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return history.OpenPostgres(dctx, cfg.DatabaseURL)
}
