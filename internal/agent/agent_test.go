package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cheese-arena/internal/rules"
)

func sampleRequest() Request {
	return Request{
		SessionID:  "s-1",
		FEN:        "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Side:       rules.White,
		LegalMoves: []string{"e2e4", "d2d4"},
		History:    nil,
	}
}

func TestLLMAgentRequestMove(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"I recommend e2e4 as the strongest move."}}]}`)
	}))
	defer srv.Close()

	a, err := NewLLMAgent(LLMConfig{Name: "gpt", BaseURL: srv.URL + "/v1/", APIKey: "k", Model: "m"}, NewClient(WithRetry(1)))
	if err != nil {
		t.Fatalf("NewLLMAgent: %v", err)
	}
	text, err := a.RequestMove(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	if text != "I recommend e2e4 as the strongest move." {
		t.Fatalf("text=%q", text)
	}
	if auth != "Bearer k" {
		t.Fatalf("auth header=%q", auth)
	}
	if got.Model != "m" || len(got.Messages) != 2 || !strings.Contains(got.Messages[1].Content, "e2e4 d2d4") {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestLLMAgentEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	a, _ := NewLLMAgent(LLMConfig{BaseURL: srv.URL, Model: "m"}, nil)
	if _, err := a.RequestMove(context.Background(), sampleRequest()); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "bestmove g1f3")
	}))
	defer srv.Close()

	a, _ := NewRemoteAgent("remote", srv.URL, nil, NewClient(WithRetry(3)))
	text, err := a.RequestMove(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	if text != "bestmove g1f3" || calls.Load() != 3 {
		t.Fatalf("text=%q calls=%d", text, calls.Load())
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	a, _ := NewRemoteAgent("remote", srv.URL, nil, NewClient(WithRetry(3)))
	_, err := a.RequestMove(context.Background(), sampleRequest())
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls=%d want 1", calls.Load())
	}
}

func TestRemoteAgentHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	a, _ := NewRemoteAgent("slow", srv.URL, nil, NewClient(WithRetry(1)))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := a.RequestMove(ctx, sampleRequest()); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("deadline not honoured")
	}
}

func TestScriptedAgent(t *testing.T) {
	a := NewScriptedAgent("s", "e2e4", "junk")
	ctx := context.Background()
	for _, want := range []string{"e2e4", "junk", "", ""} {
		got, err := a.RequestMove(ctx, sampleRequest())
		if err != nil || got != want {
			t.Fatalf("got %q,%v want %q", got, err, want)
		}
	}
	if len(a.Calls()) != 4 {
		t.Fatalf("calls=%d", len(a.Calls()))
	}
}

func TestBuildPrompt(t *testing.T) {
	req := sampleRequest()
	req.Side = rules.Black
	req.History = []string{"e4"}
	p := BuildPrompt(req)
	for _, want := range []string{"You are playing Black.", "Position (FEN): rnbqkbnr", "Recent moves (SAN): e4", "Legal moves (UCI): e2e4 d2d4"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestParseRegistry(t *testing.T) {
	t.Setenv("ARENA_TEST_KEY", "secret")
	raw := []byte(`
agents:
  - id: white
    kind: llm
    name: GPT
    model: gpt-4o-mini
    api_key_env: ARENA_TEST_KEY
  - id: black
    kind: http
    url: http://localhost:9999/move
  - id: rnd
    kind: random
  - id: demo
    kind: scripted
    script: [e2e4, e7e5]
`)
	r, err := ParseRegistry(raw, Defaults{Timeout: time.Second})
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	defer r.Close()

	if ids := strings.Join(r.IDs(), ","); ids != "black,demo,rnd,white" {
		t.Fatalf("ids=%s", ids)
	}
	w, err := r.Get("white")
	if err != nil {
		t.Fatalf("Get white: %v", err)
	}
	llm, ok := w.(*LLMAgent)
	if !ok || llm.cfg.APIKey != "secret" || llm.Name() != "GPT" {
		t.Fatalf("unexpected white agent %#v", w)
	}
	if _, err := r.Get("nobody"); !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestParseRegistryErrors(t *testing.T) {
	cases := map[string]string{
		"empty":     `agents: []`,
		"no id":     "agents:\n  - kind: random\n",
		"duplicate": "agents:\n  - id: a\n  - id: a\n",
		"bad kind":  "agents:\n  - id: a\n    kind: telepathy\n",
		"no model":  "agents:\n  - id: a\n    kind: llm\n",
		"no url":    "agents:\n  - id: a\n    kind: http\n",
		"no binary": "agents:\n  - id: a\n    kind: uci\n    path: /definitely/not/here\n",
	}
	for name, raw := range cases {
		if _, err := ParseRegistry([]byte(raw), Defaults{}); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := ParseRegistry([]byte("agents:\n  - id: a\n    kind: telepathy\n"), Defaults{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry(Defaults{})
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	defer r.Close()
	for _, id := range []string{"white", "black"} {
		a, err := r.Get(id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		if _, ok := a.(*RandomAgent); !ok {
			t.Fatalf("%s should be random, got %T", id, a)
		}
	}
}
