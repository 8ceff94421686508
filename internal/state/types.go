package state

import (
	"time"

	"github.com/park285/cheese-arena/internal/rules"
)

// Phase mirrors the session outcome bucket.
type Phase string

const (
	PhaseStarting    Phase = "starting"
	PhaseInProgress  Phase = "in_progress"
	PhaseCheckmate   Phase = "checkmate"
	PhaseStalemate   Phase = "stalemate"
	PhaseDraw        Phase = "draw"
	PhaseAbnormalEnd Phase = "abnormal_end"
	PhaseError       Phase = "error"
)

// Terminal reports whether no further moves will be published for the session.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCheckmate, PhaseStalemate, PhaseDraw, PhaseAbnormalEnd, PhaseError:
		return true
	default:
		return false
	}
}

// Tally counts decisive wins per side.
type Tally map[rules.Side]int

func (t Tally) clone() Tally {
	out := make(Tally, 2)
	out[rules.White] = t[rules.White]
	out[rules.Black] = t[rules.Black]
	return out
}

// GameView is everything the orchestration loop publishes in one step.
type GameView struct {
	Sequence   int64
	SessionID  string
	FEN        string
	Phase      Phase
	StatusText string
	ActiveSide rules.Side
	Winner     rules.Side
	Method     string

	LastMoveSAN string
	LastMoveUCI string
	LastMover   rules.Side
	Fallback    bool
	MovesSAN    []string
	Ply         int

	OpeningCode  string
	OpeningTitle string

	Tally     Tally
	UpdatedAt time.Time
}

func (v *GameView) clone() *GameView {
	if v == nil {
		return &GameView{Tally: Tally{}.clone()}
	}
	cp := *v
	cp.MovesSAN = append([]string(nil), v.MovesSAN...)
	cp.Tally = v.Tally.clone()
	return &cp
}

// Snapshot is the externally visible projection: one published GameView plus the viewer count.
type Snapshot struct {
	GameView
	Viewers int
}
