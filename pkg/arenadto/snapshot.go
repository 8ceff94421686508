package arenadto

import "time"

type Tally struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type LastMove struct {
	SAN      string `json:"san"`
	UCI      string `json:"uci"`
	Side     string `json:"side"`
	Fallback bool   `json:"fallback"`
}

type Opening struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Snapshot is the JSON shape served to viewers and mirrored to Redis.
type Snapshot struct {
	Game       int64     `json:"game"`
	SessionID  string    `json:"session_id"`
	FEN        string    `json:"fen"`
	Status     string    `json:"status"`
	Phase      string    `json:"phase"`
	ActiveSide string    `json:"active_side"`
	Winner     string    `json:"winner,omitempty"`
	Method     string    `json:"method,omitempty"`
	LastMove   *LastMove `json:"last_move,omitempty"`
	MovesSAN   []string  `json:"moves_san"`
	Ply        int       `json:"ply"`
	Opening    *Opening  `json:"opening,omitempty"`
	Wins       Tally     `json:"wins"`
	Viewers    int       `json:"viewers"`
	UpdatedAt  time.Time `json:"updated_at"`
}
