package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/cheese-arena/internal/agent"
	"github.com/park285/cheese-arena/internal/arena"
	"github.com/park285/cheese-arena/internal/rules"
)

// agentcheck asks every configured agent for one move from the initial
// position and reports what the extractor makes of the reply.
func main() {
	file := flag.String("agents", os.Getenv("AGENTS_FILE"), "agents file (empty uses the built-in random agents)")
	timeout := flag.Duration("timeout", 20*time.Second, "per-agent timeout")
	flag.Parse()

	def := agent.Defaults{StockfishPath: os.Getenv("STOCKFISH_PATH"), Timeout: *timeout}
	var (
		reg *agent.Registry
		err error
	)
	if *file == "" {
		reg, err = agent.DefaultRegistry(def)
	} else {
		reg, err = agent.LoadRegistry(*file, def)
	}
	if err != nil {
		log.Fatalf("registry error: %v", err)
	}
	defer func() { _ = reg.Close() }()

	pos := rules.NewPosition()
	req := agent.Request{
		SessionID:  "agentcheck",
		FEN:        pos.FEN(),
		Side:       pos.Turn(),
		LegalMoves: pos.LegalMoves(),
	}

	failed := 0
	for _, id := range reg.IDs() {
		a, _ := reg.Get(id)
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		start := time.Now()
		text, err := a.RequestMove(ctx, req)
		cancel()
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			fmt.Printf("%-12s %-20s error=%v (%s)\n", id, a.Name(), err, elapsed)
			failed++
			continue
		}
		move, ok := arena.ExtractMove(text)
		legal := ok && contains(req.LegalMoves, move)
		fmt.Printf("%-12s %-20s move=%q legal=%t (%s) reply=%q\n", id, a.Name(), move, legal, elapsed, truncate(text, 80))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
