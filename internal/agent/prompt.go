package agent

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-arena/internal/rules"
)

const defaultSystemPrompt = "You are a chess engine playing a full game. " +
	"Reply with exactly one move in UCI notation (for example e2e4 or e7e8q). " +
	"You may add a short comment after the move."

// historyWindow bounds how many recent SAN moves go into the prompt.
const historyWindow = 40

// BuildPrompt renders the per-move user prompt for text agents.
func BuildPrompt(req Request) string {
	var b strings.Builder
	side := "White"
	if req.Side == rules.Black {
		side = "Black"
	}
	fmt.Fprintf(&b, "You are playing %s.\n", side)
	fmt.Fprintf(&b, "Position (FEN): %s\n", req.FEN)
	if len(req.History) > 0 {
		hist := req.History
		if len(hist) > historyWindow {
			hist = hist[len(hist)-historyWindow:]
		}
		fmt.Fprintf(&b, "Recent moves (SAN): %s\n", strings.Join(hist, " "))
	}
	if len(req.LegalMoves) > 0 {
		fmt.Fprintf(&b, "Legal moves (UCI): %s\n", strings.Join(req.LegalMoves, " "))
	}
	b.WriteString("Your move:")
	return b.String()
}
