package agent

import (
	"context"
	"sync"
)

// RandomAgent never proposes anything, so every move comes from the fallback policy.
type RandomAgent struct{ name string }

func NewRandomAgent(name string) *RandomAgent { return &RandomAgent{name: name} }

func (a *RandomAgent) Name() string { return a.name }

func (a *RandomAgent) RequestMove(ctx context.Context, req Request) (string, error) {
	return "", ctx.Err()
}

// ScriptedAgent replays fixed replies in order, then returns "".
type ScriptedAgent struct {
	name string

	mu      sync.Mutex
	replies []string
	next    int
	calls   []Request
}

func NewScriptedAgent(name string, replies ...string) *ScriptedAgent {
	return &ScriptedAgent{name: name, replies: append([]string(nil), replies...)}
}

func (a *ScriptedAgent) Name() string { return a.name }

func (a *ScriptedAgent) RequestMove(ctx context.Context, req Request) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, req)
	if a.next >= len(a.replies) {
		return "", nil
	}
	r := a.replies[a.next]
	a.next++
	return r, nil
}

// Calls returns a copy of every request seen so far.
func (a *ScriptedAgent) Calls() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.calls...)
}
