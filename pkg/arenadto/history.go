package arenadto

import "time"

// GameRecord is an archived session.
type GameRecord struct {
	ID        string    `json:"id"`
	Game      int64     `json:"game"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    string    `json:"result"`
	Method    string    `json:"method"`
	StartFEN  string    `json:"start_fen,omitempty"`
	MovesUCI  []string  `json:"moves_uci"`
	MovesSAN  []string  `json:"moves_san"`
	PGN       string    `json:"pgn"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}
