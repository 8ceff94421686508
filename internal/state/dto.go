package state

import (
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

// DTO converts a snapshot into its wire form.
func (s Snapshot) DTO() arenadto.Snapshot {
	out := arenadto.Snapshot{
		Game:       s.Sequence,
		SessionID:  s.SessionID,
		FEN:        s.FEN,
		Status:     s.StatusText,
		Phase:      string(s.Phase),
		ActiveSide: string(s.ActiveSide),
		Winner:     string(s.Winner),
		Method:     s.Method,
		MovesSAN:   append([]string{}, s.MovesSAN...),
		Ply:        s.Ply,
		Wins:       arenadto.Tally{White: s.Tally[rules.White], Black: s.Tally[rules.Black]},
		Viewers:    s.Viewers,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.LastMoveUCI != "" {
		out.LastMove = &arenadto.LastMove{
			SAN:      s.LastMoveSAN,
			UCI:      s.LastMoveUCI,
			Side:     string(s.LastMover),
			Fallback: s.Fallback,
		}
	}
	if s.OpeningCode != "" {
		out.Opening = &arenadto.Opening{Code: s.OpeningCode, Title: s.OpeningTitle}
	}
	return out
}
