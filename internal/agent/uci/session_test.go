package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

const helperEnv = "CHEESE_ARENA_FAKE_UCI"

// TestHelperEngine is not a real test: when re-executed with helperEnv set it
// behaves like a tiny UCI engine that always answers e2e4.
func TestHelperEngine(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	runFakeEngine(os.Stdin, os.Stdout)
	os.Exit(0)
}

func runFakeEngine(in io.Reader, out io.Writer) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "uci":
			fmt.Fprintln(out, "id name FakeFish 1.0")
			fmt.Fprintln(out, "uciok")
		case line == "isready":
			fmt.Fprintln(out, "readyok")
		case strings.HasPrefix(line, "go"):
			fmt.Fprintln(out, "info depth 1 multipv 1 score cp 31 pv e2e4 e7e5")
			fmt.Fprintln(out, "info depth 1 multipv 2 score mate -3 pv d2d4")
			fmt.Fprintln(out, "bestmove e2e4 ponder e7e5")
		case line == "quit":
			return
		}
	}
}

func fakeEngine(t *testing.T) Engine {
	t.Helper()
	t.Setenv(helperEnv, "1")
	return Engine{Path: os.Args[0], Args: []string{"-test.run=^TestHelperEngine$"}}
}

func TestSessionSearch(t *testing.T) {
	eng := fakeEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewSession(ctx, eng.Path, Options{Threads: 1, Elo: 1500}, eng.Args...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()
	if s.Name() != "FakeFish 1.0" {
		t.Fatalf("name=%q", s.Name())
	}

	resp, err := s.Search(ctx, SearchRequest{FEN: "startpos", Limits: Limits{MoveTimeMillis: 50}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.BestMove != "e2e4" || resp.Ponder != "e7e5" || resp.Line != "bestmove e2e4 ponder e7e5" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Candidates) != 2 || resp.Candidates[0].EvalCP != 31 || resp.Candidates[1].EvalCP != -30000 {
		t.Fatalf("unexpected candidates %+v", resp.Candidates)
	}
	if err := s.NewGame(ctx); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
}

func TestPoolReusesSession(t *testing.T) {
	eng := fakeEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := NewPool(1)
	defer p.Close()

	s1, err := p.Acquire(ctx, eng)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(s1, nil)
	s2, err := p.Acquire(ctx, eng)
	if err != nil {
		t.Fatalf("Acquire again: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected warm session to be reused")
	}
	p.Release(s2, fmt.Errorf("boom"))

	s3, err := p.Acquire(ctx, eng)
	if err != nil {
		t.Fatalf("Acquire after discard: %v", err)
	}
	if s3 == s2 {
		t.Fatalf("discarded session must not come back")
	}
	p.Release(s3, nil)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Acquire(ctx, eng); err != ErrPoolClosed {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestBuildCommands(t *testing.T) {
	if got := buildPositionCommand("startpos", []string{"e2e4", "e7e5"}); got != "position startpos moves e2e4 e7e5\n" {
		t.Fatalf("position=%q", got)
	}
	if got := buildPositionCommand("8/8/8/8/8/8/8/K6k w - - 0 1", nil); got != "position fen 8/8/8/8/8/8/8/K6k w - - 0 1\n" {
		t.Fatalf("position fen=%q", got)
	}
	if _, err := buildGoTokens(Limits{}); err == nil {
		t.Fatalf("expected error for empty limits")
	}
	tokens, _ := buildGoTokens(Limits{Depth: 8, Nodes: 1000})
	if strings.Join(tokens, " ") != "go depth 8 nodes 1000" {
		t.Fatalf("go=%v", tokens)
	}
}

func TestParseBestMove(t *testing.T) {
	cases := []struct {
		line, best, ponder string
	}{
		{"bestmove e7e8q", "e7e8q", ""},
		{"bestmove g1f3 ponder d7d5", "g1f3", "d7d5"},
		{"bestmove (none)", "", ""},
		{"bestmove", "", ""},
	}
	for _, tc := range cases {
		best, ponder := parseBestMove(tc.line)
		if best != tc.best || ponder != tc.ponder {
			t.Errorf("%q: got %q/%q", tc.line, best, ponder)
		}
	}
}
