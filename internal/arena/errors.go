package arena

import "errors"

var (
	// ErrNoLegalMoves means the position has no continuation although it was not flagged terminal.
	ErrNoLegalMoves = errors.New("no legal moves")
	// ErrAgentUnavailable means no agent is assigned to the side to move.
	ErrAgentUnavailable = errors.New("agent unavailable")
	ErrSessionPanic     = errors.New("session panic")
	ErrEmptyBook        = errors.New("opening book has no positions")
)
