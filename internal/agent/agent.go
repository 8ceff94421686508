package agent

import (
	"context"
	"errors"

	"github.com/park285/cheese-arena/internal/rules"
)

var (
	ErrEmptyResponse = errors.New("agent returned empty response")
	ErrUnknownKind   = errors.New("unknown agent kind")
	ErrUnknownAgent  = errors.New("unknown agent id")
)

// Request is what an agent sees for one half-move.
type Request struct {
	SessionID  string
	FEN        string
	Side       rules.Side
	LegalMoves []string
	History    []string
	Ply        int
}

// Agent proposes a move as free-form text. The text is parsed by the caller,
// so commentary around the move is fine. Implementations should honour ctx.
type Agent interface {
	Name() string
	RequestMove(ctx context.Context, req Request) (string, error)
}
