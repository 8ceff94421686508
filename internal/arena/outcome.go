package arena

import (
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/internal/state"
)

// Status is the session classification.
type Status int

const (
	InProgress Status = iota
	Checkmate
	Stalemate
	Draw
	AbnormalEnd
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	case AbnormalEnd:
		return "abnormal_end"
	default:
		return "in_progress"
	}
}

// Phase maps the status onto the published phase.
func (s Status) Phase() state.Phase {
	switch s {
	case Checkmate:
		return state.PhaseCheckmate
	case Stalemate:
		return state.PhaseStalemate
	case Draw:
		return state.PhaseDraw
	case AbnormalEnd:
		return state.PhaseAbnormalEnd
	default:
		return state.PhaseInProgress
	}
}

const MethodMaxPlies = "maxplies"

// Verdict is the outcome of a position.
type Verdict struct {
	Status Status
	Winner rules.Side
	Method string
}

func (v Verdict) Terminal() bool { return v.Status != InProgress }

// Decisive reports whether the verdict should move the tally.
func (v Verdict) Decisive() bool { return v.Status == Checkmate && v.Winner.Valid() }

// Result is the PGN result token.
func (v Verdict) Result() string {
	switch {
	case v.Decisive() && v.Winner == rules.White:
		return "1-0"
	case v.Decisive():
		return "0-1"
	case v.Status == Stalemate || v.Status == Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func abnormal(method string) Verdict {
	return Verdict{Status: AbnormalEnd, Method: method}
}

// Resolver classifies the position reached after each half-move.
type Resolver struct {
	// MaxPlies ends a session as a draw once reached. Zero disables the cap.
	MaxPlies int
}

func (r Resolver) Resolve(pos rules.Position) Verdict {
	term, method := pos.Termination()
	switch term {
	case rules.Checkmate:
		return Verdict{Status: Checkmate, Winner: pos.Turn().Opposite(), Method: method}
	case rules.Stalemate:
		return Verdict{Status: Stalemate, Method: method}
	case rules.Draw:
		return Verdict{Status: Draw, Method: method}
	}
	if r.MaxPlies > 0 && pos.Ply() >= r.MaxPlies {
		return Verdict{Status: Draw, Method: MethodMaxPlies}
	}
	return Verdict{Status: InProgress}
}
