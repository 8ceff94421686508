package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/park285/cheese-arena/internal/agent"
	"github.com/park285/cheese-arena/internal/rules"
	"go.uber.org/zap"
)

// Turn is one completed half-move.
type Turn struct {
	Side      rules.Side
	AgentText string
	AgentErr  error
	Elapsed   time.Duration
	Applied
}

// Sequencer asks the agent of the side to move for a move and plays it.
type Sequencer struct {
	agents  map[rules.Side]agent.Agent
	applier *Applier
	timeout time.Duration
	logger  *zap.Logger
}

func NewSequencer(white, black agent.Agent, applier *Applier, timeout time.Duration, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	agents := make(map[rules.Side]agent.Agent, 2)
	if white != nil {
		agents[rules.White] = white
	}
	if black != nil {
		agents[rules.Black] = black
	}
	return &Sequencer{agents: agents, applier: applier, timeout: timeout, logger: logger}
}

// AgentName returns the display name of the agent playing side.
func (s *Sequencer) AgentName(side rules.Side) string {
	if a, ok := s.agents[side]; ok {
		return a.Name()
	}
	return ""
}

// Play runs one half-move for the side to move in sess.
// ErrNoLegalMoves and ErrAgentUnavailable end the session abnormally; a cancelled ctx is returned as is.
func (s *Sequencer) Play(ctx context.Context, sess *Session) (Turn, error) {
	pos := sess.Position
	side := pos.Turn()
	turn := Turn{Side: side}

	legal := pos.LegalMoves()
	if len(legal) == 0 {
		return turn, ErrNoLegalMoves
	}
	ag, ok := s.agents[side]
	if !ok {
		return turn, fmt.Errorf("%w: %s", ErrAgentUnavailable, side)
	}

	req := agent.Request{
		SessionID:  sess.ID,
		FEN:        pos.FEN(),
		Side:       side,
		LegalMoves: legal,
		History:    append([]string(nil), sess.MovesSAN...),
		Ply:        pos.Ply(),
	}
	start := time.Now()
	text, err := s.ask(ctx, ag, req)
	turn.Elapsed = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return turn, ctx.Err()
		}
		turn.AgentErr = err
		s.logger.Warn("arena_agent_error",
			zap.String("agent", ag.Name()),
			zap.String("side", string(side)),
			zap.Duration("elapsed", turn.Elapsed),
			zap.Error(err),
		)
		text = ""
	}
	turn.AgentText = text

	candidate, found := ExtractMove(text)
	if !found && err == nil {
		s.logger.Debug("arena_no_move_in_reply", zap.String("agent", ag.Name()), zap.Int("reply_len", len(text)))
	}

	applied, err := s.applier.Apply(pos, candidate)
	if err != nil {
		return turn, err
	}
	turn.Applied = applied
	return turn, nil
}

type askResult struct {
	text string
	err  error
}

// ask bounds the agent call by the configured timeout even when the agent ignores ctx.
func (s *Sequencer) ask(ctx context.Context, ag agent.Agent, req agent.Request) (string, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan askResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- askResult{err: fmt.Errorf("agent panic: %v", r)}
			}
		}()
		text, err := ag.RequestMove(callCtx, req)
		done <- askResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("agent timeout after %s: %w", s.timeout, callCtx.Err())
		}
		return "", callCtx.Err()
	}
}
