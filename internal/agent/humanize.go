package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/park285/cheese-arena/internal/agent/uci"
)

// Style spreads an engine's choice over its top MultiPV lines.
// A zero Style always plays the engine's best move.
type Style struct {
	// Weights[i] is the relative chance of playing the i-th best line.
	Weights []float64
	// ForcedMarginCP keeps the best line when it beats the runner-up by at least this much.
	ForcedMarginCP int
}

func (s Style) Enabled() bool { return len(s.Weights) > 1 }

func (s Style) Validate() error {
	total := 0.0
	for i, w := range s.Weights {
		if w < 0 {
			return fmt.Errorf("style weight %d is negative", i)
		}
		total += w
	}
	if len(s.Weights) > 0 && total == 0 {
		return errors.New("style weights sum to zero")
	}
	return nil
}

type chooser struct {
	style Style
	mu    sync.Mutex
	rng   *rand.Rand
}

func newChooser(style Style, rng *rand.Rand) *chooser {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &chooser{style: style, rng: rng}
}

// pick returns the chosen move, or "" to keep the engine's bestmove.
func (c *chooser) pick(candidates []uci.Candidate) string {
	if c == nil || !c.style.Enabled() || len(candidates) < 2 {
		return ""
	}
	limit := len(c.style.Weights)
	if limit > len(candidates) {
		limit = len(candidates)
	}
	if m := c.style.ForcedMarginCP; m > 0 && candidates[0].EvalCP-candidates[1].EvalCP >= m {
		return candidates[0].Move
	}

	total := 0.0
	for i := 0; i < limit; i++ {
		total += c.style.Weights[i]
	}
	if total <= 0 {
		return ""
	}

	c.mu.Lock()
	threshold := c.rng.Float64() * total
	c.mu.Unlock()
	for i := 0; i < limit; i++ {
		threshold -= c.style.Weights[i]
		if threshold <= 0 {
			return candidates[i].Move
		}
	}
	return candidates[limit-1].Move
}
