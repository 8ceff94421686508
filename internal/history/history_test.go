package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-arena/pkg/arenadto"
)

func record(game int64, ended time.Time) arenadto.GameRecord {
	return arenadto.GameRecord{
		ID:        fmt.Sprintf("session-%d", game),
		Game:      game,
		White:     "stockfish",
		Black:     "gpt",
		Result:    "0-1",
		Method:    "checkmate",
		MovesUCI:  []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		MovesSAN:  []string{"f3", "e5", "g4", "Qh4#"},
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
	}
}

func TestMemoryRepositoryRecentOrder(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		if err := repo.SaveGame(ctx, record(i, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveGame %d: %v", i, err)
		}
	}
	if err := repo.SaveGame(ctx, record(2, base)); !errors.Is(err, ErrDuplicateGame) {
		t.Fatalf("expected ErrDuplicateGame, got %v", err)
	}

	list, err := repo.RecentGames(ctx, 2)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(list) != 2 || list[0].Game != 3 || list[1].Game != 2 {
		t.Fatalf("unexpected order: %+v", list)
	}

	// returned records are copies
	list[0].MovesSAN[0] = "changed"
	got, err := repo.GetGame(ctx, "session-3")
	if err != nil || got == nil {
		t.Fatalf("GetGame: %v", err)
	}
	if got.MovesSAN[0] != "f3" {
		t.Fatalf("stored record mutated through returned slice")
	}
	if missing, _ := repo.GetGame(ctx, "nope"); missing != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestMemoryRepositoryEvictsOldest(t *testing.T) {
	repo := NewMemoryRepository(2)
	ctx := context.Background()
	now := time.Now()
	for i := int64(1); i <= 3; i++ {
		_ = repo.SaveGame(ctx, record(i, now.Add(time.Duration(i)*time.Second)))
	}
	if g, _ := repo.GetGame(ctx, "session-1"); g != nil {
		t.Fatalf("oldest record should have been evicted")
	}
	list, _ := repo.RecentGames(ctx, 10)
	if len(list) != 2 {
		t.Fatalf("len=%d want 2", len(list))
	}
}

func TestBuildPGN(t *testing.T) {
	rec := record(4, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	pgn := BuildPGN(rec)
	for _, want := range []string{
		`[Date "2025.03.01"]`,
		`[Round "4"]`,
		`[White "stockfish"]`,
		`[Result "0-1"]`,
		"1. f3 e5 2. g4 Qh4# 0-1",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("pgn missing %q:\n%s", want, pgn)
		}
	}
	if strings.Contains(pgn, "[SetUp") {
		t.Fatalf("standard start should not carry SetUp tag")
	}
}

func TestBuildPGNCustomStart(t *testing.T) {
	rec := arenadto.GameRecord{
		Game:     1,
		Result:   "1/2-1/2",
		StartFEN: "4k3/8/8/8/8/8/3q4/4K3 b - - 0 12",
		MovesSAN: []string{"Qd1+", "Kxd1"},
		EndedAt:  time.Now(),
	}
	pgn := BuildPGN(rec)
	if !strings.Contains(pgn, `[FEN "4k3/8/8/8/8/8/3q4/4K3 b - - 0 12"]`) {
		t.Fatalf("missing FEN tag:\n%s", pgn)
	}
	if !strings.Contains(pgn, "12... Qd1+ 13. Kxd1 1/2-1/2") {
		t.Fatalf("unexpected movetext:\n%s", pgn)
	}
}
