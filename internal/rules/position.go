package rules

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrMalformedMove = errors.New("malformed move")
	ErrBadFEN        = errors.New("invalid fen")
)

// Side is the colour label used across the arena.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s Side) Opposite() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) Valid() bool { return s == White || s == Black }

func sideFrom(c nchess.Color) Side {
	if c == nchess.Black {
		return Black
	}
	return White
}

// Termination buckets the rules engine's terminal methods.
type Termination int

const (
	NotTerminal Termination = iota
	Checkmate
	Stalemate
	Draw
)

func (t Termination) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	default:
		return "none"
	}
}

// Position is an immutable view over a game. Apply returns a new Position and
// never mutates the receiver, so a Position can be shared with readers.
type Position struct {
	game *nchess.Game
}

// NewPosition returns the standard initial position.
func NewPosition() Position {
	return Position{game: nchess.NewGame()}
}

// FromFEN builds a position from a FEN string. "startpos" and "" are accepted.
func FromFEN(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return NewPosition(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrBadFEN, err)
	}
	return Position{game: nchess.NewGame(opt)}, nil
}

func (p Position) IsZero() bool { return p.game == nil }

func (p Position) g() *nchess.Game {
	if p.game == nil {
		return nchess.NewGame()
	}
	return p.game
}

// FEN is the interchange string published to viewers.
func (p Position) FEN() string { return p.g().FEN() }

// Turn reports the side to move.
func (p Position) Turn() Side { return sideFrom(p.g().Position().Turn()) }

// Ply is the number of half-moves played since this position's origin.
func (p Position) Ply() int { return len(p.g().Moves()) }

// LegalMoves lists every legal move in lowercase UCI form.
func (p Position) LegalMoves() []string {
	moves := p.g().ValidMoves()
	out := make([]string, 0, len(moves))
	for i := range moves {
		out = append(out, strings.ToLower(moves[i].String()))
	}
	return out
}

// Played describes a move that was applied.
type Played struct {
	UCI  string
	SAN  string
	From string
	To   string
}

// Apply plays req on a copy of the position.
func (p Position) Apply(req MoveRequest) (Position, Played, error) {
	if err := req.Validate(); err != nil {
		return Position{}, Played{}, err
	}
	uci := req.UCI()
	if !contains(p.LegalMoves(), uci) {
		return Position{}, Played{}, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	clone := p.g().Clone()
	pos := clone.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return Position{}, Played{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := clone.Move(mv, nil); err != nil {
		return Position{}, Played{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return Position{game: clone}, Played{UCI: uci, SAN: san, From: req.From, To: req.To}, nil
}

// Termination classifies the position. method is the engine's lowercase
// reason ("checkmate", "stalemate", "insufficientmaterial", ...).
func (p Position) Termination() (Termination, string) {
	game := p.g()
	method := game.Method()
	reason := strings.ToLower(method.String())
	switch method {
	case nchess.Checkmate:
		return Checkmate, reason
	case nchess.Stalemate:
		return Stalemate, reason
	}
	if game.Outcome() == nchess.Draw {
		return Draw, reason
	}
	return NotTerminal, ""
}

// LastMove returns the most recent move, if any.
func (p Position) LastMove() (Played, bool) {
	moves := p.g().Moves()
	if len(moves) == 0 {
		return Played{}, false
	}
	mv := moves[len(moves)-1]
	return Played{
		UCI:  strings.ToLower(mv.String()),
		From: mv.S1().String(),
		To:   mv.S2().String(),
	}, true
}

// PGN renders the movetext of the game so far.
func (p Position) PGN() string { return p.g().String() }

// Board exposes the piece placement for renderers.
func (p Position) Board() *nchess.Board { return p.g().Position().Board() }

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// Opening returns the ECO code and title of the deepest matching opening.
func (p Position) Opening() (string, string) {
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	if ecoBook == nil {
		return "", ""
	}
	if o := ecoBook.Find(p.g().Moves()); o != nil {
		return o.Code(), o.Title()
	}
	return "", ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
