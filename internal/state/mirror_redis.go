package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-arena/pkg/arenadto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keySnapshot     = "arena:snapshot"
	keyViewers      = "arena:viewers"
	channelSnapshot = "arena:snapshots"
	snapshotTTL     = 24 * time.Hour
	mirrorTimeout   = 2 * time.Second
)

// RedisMirror copies every published snapshot to Redis so other processes can read it.
// It is fed from a Store subscription and never slows down the orchestration loop.
type RedisMirror struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisMirror(rdb *redis.Client, logger *zap.Logger) *RedisMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisMirror{rdb: rdb, logger: logger}
}

// DialRedisMirror parses REDIS_URL and pings the server.
func DialRedisMirror(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisMirror, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for snapshot mirror")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisMirror(rdb, logger), nil
}

func (m *RedisMirror) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// Run mirrors snapshots until ctx is done.
func (m *RedisMirror) Run(ctx context.Context, store *Store) {
	ch, cancel := store.Subscribe()
	defer cancel()

	m.write(ctx, store.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			m.write(ctx, snap)
		}
	}
}

func (m *RedisMirror) write(ctx context.Context, snap Snapshot) {
	wctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	if err := m.Write(wctx, snap); err != nil {
		m.logger.Warn("arena_mirror_write_error", zap.Int64("game", snap.Sequence), zap.Error(err))
	}
}

// Write stores the snapshot JSON, the viewer count, and publishes a change notification.
func (m *RedisMirror) Write(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap.DTO())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, keySnapshot, raw, snapshotTTL)
	pipe.Set(ctx, keyViewers, snap.Viewers, snapshotTTL)
	pipe.Publish(ctx, channelSnapshot, raw)
	_, err = pipe.Exec(ctx)
	return err
}

// Load reads the last mirrored snapshot. It returns nil when nothing was mirrored yet.
func (m *RedisMirror) Load(ctx context.Context) (*arenadto.Snapshot, error) {
	raw, err := m.rdb.Get(ctx, keySnapshot).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out arenadto.Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseRedisURL accepts redis:// and rediss:// URLs; rediss enables TLS.
func ParseRedisURL(raw string) (*redis.Options, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return opts, nil
}
