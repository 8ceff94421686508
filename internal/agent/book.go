package agent

import (
	"fmt"
	"io"
	"os"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-arena/internal/rules"
)

// PolyglotBook answers opening positions before an engine is asked to search.
type PolyglotBook struct {
	book *nchess.PolyglotBook
}

func OpenPolyglotBook(path string) (*PolyglotBook, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("polyglot book path required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open polyglot book %q: %w", path, err)
	}
	defer f.Close()
	return ReadPolyglotBook(f)
}

func ReadPolyglotBook(r io.Reader) (*PolyglotBook, error) {
	book, err := nchess.LoadFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("load polyglot book: %w", err)
	}
	return &PolyglotBook{book: book}, nil
}

// Probe returns the heaviest book move that is legal in fen.
func (b *PolyglotBook) Probe(fen string) (string, bool) {
	if b == nil || b.book == nil {
		return "", false
	}
	pos, err := rules.FromFEN(fen)
	if err != nil {
		return "", false
	}
	hash, err := nchess.NewZobristHasher().HashPosition(pos.FEN())
	if err != nil {
		return "", false
	}
	entries := b.book.FindMoves(nchess.ZobristHashToUint64(hash))

	legal := pos.LegalMoves()
	best, bestWeight := "", -1
	for _, e := range entries {
		m := nchess.DecodeMove(e.Move).ToMove()
		mv := m.String()
		if !containsMove(legal, mv) {
			if mv = polyglotCastle(mv); !containsMove(legal, mv) {
				continue
			}
		}
		if int(e.Weight) > bestWeight {
			best, bestWeight = mv, int(e.Weight)
		}
	}
	return best, best != ""
}

// polyglotCastle rewrites king-takes-rook castling into UCI form.
// Tried only when the raw move is illegal.
func polyglotCastle(mv string) string {
	switch mv {
	case "e1h1":
		return "e1g1"
	case "e1a1":
		return "e1c1"
	case "e8h8":
		return "e8g8"
	case "e8a8":
		return "e8c8"
	}
	return mv
}

func containsMove(list []string, mv string) bool {
	for _, m := range list {
		if m == mv {
			return true
		}
	}
	return false
}
