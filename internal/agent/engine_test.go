package agent

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-arena/internal/agent/uci"
)

var topLines = []uci.Candidate{
	{Move: "e2e4", EvalCP: 40},
	{Move: "d2d4", EvalCP: 35},
	{Move: "g1f3", EvalCP: 30},
}

func TestChooserFollowsWeights(t *testing.T) {
	c := newChooser(Style{Weights: []float64{0, 1}}, rand.New(rand.NewSource(7)))
	for i := 0; i < 20; i++ {
		if got := c.pick(topLines); got != "d2d4" {
			t.Fatalf("pick = %q, want d2d4", got)
		}
	}
}

func TestChooserKeepsForcedLine(t *testing.T) {
	lines := []uci.Candidate{{Move: "d1h5", EvalCP: 900}, {Move: "a2a3", EvalCP: 10}}
	c := newChooser(Style{Weights: []float64{0, 1}, ForcedMarginCP: 200}, nil)
	if got := c.pick(lines); got != "d1h5" {
		t.Fatalf("pick = %q, want forced d1h5", got)
	}
}

func TestChooserDisabled(t *testing.T) {
	var c *chooser
	if got := c.pick(topLines); got != "" {
		t.Fatalf("nil chooser picked %q", got)
	}
	if got := newChooser(Style{Weights: []float64{1}}, nil).pick(topLines); got != "" {
		t.Fatalf("single weight picked %q", got)
	}
}

func TestStyleValidate(t *testing.T) {
	if err := (Style{Weights: []float64{0, 0}}).Validate(); err == nil {
		t.Fatalf("expected error for zero weights")
	}
	if err := (Style{Weights: []float64{1, -1}}).Validate(); err == nil {
		t.Fatalf("expected error for negative weight")
	}
	if err := (Style{}).Validate(); err != nil {
		t.Fatalf("zero style: %v", err)
	}
}

// polyglotEntry encodes one 16-byte book record.
func polyglotEntry(t *testing.T, fen string, from, to string, weight uint16) []byte {
	t.Helper()
	hash, err := nchess.NewZobristHasher().HashPosition(fen)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	sq := func(s string) (uint16, uint16) { return uint16(s[0] - 'a'), uint16(s[1] - '1') }
	ff, fr := sq(from)
	tf, tr := sq(to)
	move := tf | tr<<3 | ff<<6 | fr<<9

	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], nchess.ZobristHashToUint64(hash))
	binary.BigEndian.PutUint16(buf[8:10], move)
	binary.BigEndian.PutUint16(buf[10:12], weight)
	return buf
}

func TestPolyglotBookProbe(t *testing.T) {
	start := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	var raw bytes.Buffer
	raw.Write(polyglotEntry(t, start, "d2", "d4", 10))
	raw.Write(polyglotEntry(t, start, "e2", "e4", 50))

	book, err := ReadPolyglotBook(&raw)
	if err != nil {
		t.Fatalf("ReadPolyglotBook: %v", err)
	}
	mv, ok := book.Probe(start)
	if !ok || mv != "e2e4" {
		t.Fatalf("Probe = %q,%v want e2e4", mv, ok)
	}
	if _, ok := book.Probe("4k3/8/8/8/8/8/8/4K3 w - - 0 1"); ok {
		t.Fatalf("expected miss outside the book")
	}

	var nilBook *PolyglotBook
	if _, ok := nilBook.Probe(start); ok {
		t.Fatalf("nil book should never answer")
	}
}

func TestPolyglotCastle(t *testing.T) {
	if got := polyglotCastle("e1h1"); got != "e1g1" {
		t.Fatalf("got %q", got)
	}
	if got := polyglotCastle("e2e4"); got != "e2e4" {
		t.Fatalf("got %q", got)
	}
}
