package agent

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/park285/cheese-arena/internal/agent/uci"
)

// EngineAgent plays through a pooled UCI engine process.
type EngineAgent struct {
	name   string
	pool   *uci.Pool
	engine uci.Engine
	limits uci.Limits
	book   *PolyglotBook
	choose *chooser
}

type EngineOption func(*EngineAgent)

// WithBook answers book positions without starting a search.
func WithBook(b *PolyglotBook) EngineOption {
	return func(a *EngineAgent) { a.book = b }
}

// WithStyle picks among the top MultiPV lines. MultiPV is raised to cover the weights.
func WithStyle(s Style, rng *rand.Rand) EngineOption {
	return func(a *EngineAgent) {
		if !s.Enabled() {
			return
		}
		a.choose = newChooser(s, rng)
		if a.engine.Options.MultiPV < len(s.Weights) {
			a.engine.Options.MultiPV = len(s.Weights)
		}
	}
}

func NewEngineAgent(name string, pool *uci.Pool, engine uci.Engine, limits uci.Limits, opts ...EngineOption) (*EngineAgent, error) {
	path, err := uci.CheckBinary(engine.Path)
	if err != nil {
		return nil, fmt.Errorf("uci agent %q: %w", name, err)
	}
	engine.Path = path
	if limits.Depth <= 0 && limits.MoveTimeMillis <= 0 && limits.Nodes <= 0 {
		limits.MoveTimeMillis = 500
	}
	a := &EngineAgent{name: name, pool: pool, engine: engine, limits: limits}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *EngineAgent) Name() string { return a.name }

// RequestMove returns a "bestmove ..." line, either the engine's own or a book/style pick.
func (a *EngineAgent) RequestMove(ctx context.Context, req Request) (string, error) {
	if mv, ok := a.book.Probe(req.FEN); ok {
		return "bestmove " + mv, nil
	}
	session, err := a.pool.Acquire(ctx, a.engine)
	if err != nil {
		return "", fmt.Errorf("acquire engine: %w", err)
	}
	resp, err := session.Search(ctx, uci.SearchRequest{FEN: req.FEN, Limits: a.limits})
	a.pool.Release(session, err)
	if err != nil {
		return "", err
	}
	if resp.BestMove == "" {
		return "", ErrEmptyResponse
	}
	if mv := a.choose.pick(resp.Candidates); mv != "" && mv != resp.BestMove {
		return "bestmove " + mv, nil
	}
	return resp.Line, nil
}
