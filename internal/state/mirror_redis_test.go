package state

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/cheese-arena/internal/rules"
)

func newTestMirror(t *testing.T) (*RedisMirror, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	m, err := DialRedisMirror(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), nil)
	if err != nil {
		t.Fatalf("DialRedisMirror: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

func TestMirrorWriteAndLoad(t *testing.T) {
	m, mr := newTestMirror(t)
	ctx := context.Background()

	if got, err := m.Load(ctx); err != nil || got != nil {
		t.Fatalf("empty Load: %v %v", got, err)
	}

	s := NewStore()
	s.AddViewer()
	snap := s.RecordWin(rules.Black, func(v *GameView) {
		v.Sequence = 7
		v.FEN = "8/8/8/8/8/8/8/8 w - - 0 1"
		v.Phase = PhaseCheckmate
	})
	if err := m.Write(ctx, snap); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := m.Load(ctx)
	if err != nil || got == nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Game != 7 || got.Wins.Black != 1 || got.Phase != "checkmate" {
		t.Fatalf("unexpected mirrored snapshot %+v", got)
	}
	if v, _ := mr.Get(keyViewers); v != "1" {
		t.Fatalf("viewers key=%q", v)
	}
}

func TestMirrorRunFollowsStore(t *testing.T) {
	m, _ := newTestMirror(t)
	s := NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, s)
		close(done)
	}()

	s.Publish(func(v *GameView) { v.Sequence = 42 })

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := m.Load(context.Background())
		if err == nil && got != nil && got.Game == 42 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("mirror never caught up: %+v %v", got, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected opts %+v", opts)
	}
	if _, err := ParseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}

	tlsOpts, err := ParseRedisURL("rediss://cache.example.com:6380/0")
	if err != nil {
		t.Fatalf("ParseRedisURL rediss: %v", err)
	}
	if tlsOpts.TLSConfig == nil || tlsOpts.TLSConfig.ServerName != "cache.example.com" {
		t.Fatalf("rediss should enable TLS, got %+v", tlsOpts.TLSConfig)
	}
	if opts.TLSConfig != nil {
		t.Fatalf("redis:// must stay plaintext")
	}
}
