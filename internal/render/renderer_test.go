package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestRenderPNGDecodes(t *testing.T) {
	r := New(48)
	data, err := r.RenderPNG(context.Background(), startFEN, Options{Caption: "Game #1: Random White vs Random Black"})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 48*8+48 {
		t.Fatalf("width=%d", b.Dx())
	}
	if b.Dy() <= b.Dx() {
		t.Fatalf("caption panel missing: %v", b)
	}
}

func TestRenderPNGHighlights(t *testing.T) {
	r := New(32)
	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	plain, err := r.RenderPNG(context.Background(), afterE4, Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	marked, err := r.RenderPNG(context.Background(), afterE4, Options{Highlight: &Highlight{From: "e2", To: "e4"}})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if bytes.Equal(plain, marked) {
		t.Fatalf("highlight did not change the image")
	}

	if _, err := r.RenderPNG(context.Background(), afterE4, Options{Highlight: &Highlight{From: "z9", To: "e4"}}); !errors.Is(err, ErrBadSquare) {
		t.Fatalf("expected ErrBadSquare, got %v", err)
	}
}

func TestRenderPNGRejectsBadInput(t *testing.T) {
	r := New(32)
	if _, err := r.RenderPNG(context.Background(), "not a fen", Options{}); err == nil {
		t.Fatalf("expected error for malformed fen")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPNG(ctx, startFEN, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPieceImageCached(t *testing.T) {
	a, err := pieceImage(nchess.WhiteKnight, 40)
	if err != nil {
		t.Fatalf("pieceImage: %v", err)
	}
	b, _ := pieceImage(nchess.WhiteKnight, 40)
	if a != b {
		t.Fatalf("expected cached image")
	}
	var opaque int
	for i := 3; i < len(a.Pix); i += 4 {
		if a.Pix[i] > 0 {
			opaque++
		}
	}
	if opaque == 0 {
		t.Fatalf("piece rendered empty")
	}
}
