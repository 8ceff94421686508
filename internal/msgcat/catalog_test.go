package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogRenders(t *testing.T) {
	c := MustDefault()
	got, err := c.Render(KeyCheckmate, map[string]any{"Winner": "Black"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Checkmate! Black wins" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := c.Text(KeyAbnormal, nil, "x"); got != "Game ended unexpectedly" {
		t.Fatalf("abnormal text %q", got)
	}
}

func TestMissingDataFallsBack(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render(KeyMoved, map[string]any{}); err == nil {
		t.Fatalf("expected missingkey error")
	}
	if got := c.Text(KeyMoved, map[string]any{}, "fallback"); got != "fallback" {
		t.Fatalf("Text fallback=%q", got)
	}
	if got := c.Text("nope.nothing", nil, "d"); got != "d" {
		t.Fatalf("unknown key fallback=%q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("status:\n  abnormal: \"게임이 비정상 종료되었습니다\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text(KeyAbnormal, nil, ""); got != "게임이 비정상 종료되었습니다" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text(KeyWhite, nil, ""); got != "White" {
		t.Fatalf("default lost after override: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("status:\n  error: \"x\"\n")
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644)
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
