package arena

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/park285/cheese-arena/internal/rules"
	"go.uber.org/zap"
)

// Applied is the result of one half-move.
type Applied struct {
	Position  rules.Position
	Move      rules.Played
	Candidate string
	// Fallback is set when the candidate was missing or rejected and a random legal move was played.
	Fallback bool
}

// Applier plays a candidate move or, failing that, a uniformly random legal move.
type Applier struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

func NewApplier(rng *rand.Rand, logger *zap.Logger) *Applier {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{rng: rng, logger: logger}
}

// Apply returns ErrNoLegalMoves when pos has no continuation. Any other
// problem with candidate is absorbed by the fallback.
func (a *Applier) Apply(pos rules.Position, candidate string) (Applied, error) {
	legal := pos.LegalMoves()
	if len(legal) == 0 {
		return Applied{}, ErrNoLegalMoves
	}

	if candidate != "" {
		req, err := rules.ParseMoveRequest(candidate)
		if err == nil {
			next, played, aerr := pos.Apply(req)
			if aerr == nil {
				return Applied{Position: next, Move: played, Candidate: candidate}, nil
			}
			err = aerr
		}
		a.logger.Info("arena_candidate_rejected",
			zap.String("candidate", candidate),
			zap.String("side", string(pos.Turn())),
			zap.Error(err),
		)
	}

	pick := legal[a.intn(len(legal))]
	req, err := rules.ParseMoveRequest(pick)
	if err != nil {
		return Applied{}, fmt.Errorf("fallback move %s: %w", pick, err)
	}
	next, played, err := pos.Apply(req)
	if err != nil {
		return Applied{}, fmt.Errorf("fallback move %s: %w", pick, err)
	}
	a.logger.Info("arena_fallback_move",
		zap.String("side", string(pos.Turn())),
		zap.String("move", played.UCI),
		zap.Int("legal", len(legal)),
	)
	return Applied{Position: next, Move: played, Candidate: candidate, Fallback: true}, nil
}

func (a *Applier) intn(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Intn(n)
}
