package agent

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/park285/cheese-arena/internal/agent/uci"
	yaml "gopkg.in/yaml.v3"
)

// Spec is one entry of the agents file.
//
//	agents:
//	  - id: white
//	    kind: uci
//	    path: /usr/games/stockfish
//	    elo: 1600
//	    movetime_ms: 300
//	  - id: black
//	    kind: llm
//	    model: gpt-4o-mini
//	    api_key_env: OPENAI_API_KEY
type Spec struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`

	// uci
	Path       string   `yaml:"path"`
	Args       []string `yaml:"args"`
	Threads    int      `yaml:"threads"`
	HashMB     int      `yaml:"hash_mb"`
	Skill      int      `yaml:"skill"`
	Elo        int      `yaml:"elo"`
	Depth      int      `yaml:"depth"`
	MoveTimeMS int      `yaml:"movetime_ms"`
	Nodes      int      `yaml:"nodes"`
	MultiPV    int      `yaml:"multipv"`

	// polyglot .bin consulted before searching
	Book string `yaml:"book"`

	// weights spread the choice over the top MultiPV lines, e.g. [0.7, 0.2, 0.1]
	Weights        []float64 `yaml:"weights"`
	ForcedMarginCP int       `yaml:"forced_margin_cp"`

	// llm
	BaseURL      string  `yaml:"base_url"`
	APIKey       string  `yaml:"api_key"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`

	// http
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`

	// scripted
	Script []string `yaml:"script"`
}

type registryFile struct {
	Agents []Spec `yaml:"agents"`
}

// Defaults fill in what the agents file leaves out.
type Defaults struct {
	StockfishPath string
	Timeout       time.Duration
	// Rand drives styled engine picks. Nil seeds from 1.
	Rand *rand.Rand
}

// Registry owns every configured agent and the engine pool behind the uci ones.
type Registry struct {
	agents map[string]Agent
	pool   *uci.Pool
}

// DefaultRegistry is used without an agents file: "white" and "black" play
// random moves, plus a "stockfish" uci agent when a binary is configured.
func DefaultRegistry(def Defaults) (*Registry, error) {
	specs := []Spec{
		{ID: "white", Kind: "random", Name: "Random White"},
		{ID: "black", Kind: "random", Name: "Random Black"},
	}
	if strings.TrimSpace(def.StockfishPath) != "" {
		specs = append(specs, Spec{ID: "stockfish", Kind: "uci", Name: "Stockfish"})
	}
	return build(specs, def)
}

func LoadRegistry(path string, def Defaults) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}
	return ParseRegistry(raw, def)
}

func ParseRegistry(raw []byte, def Defaults) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse agents file: %w", err)
	}
	if len(f.Agents) == 0 {
		return nil, fmt.Errorf("agents file defines no agents")
	}
	return build(f.Agents, def)
}

func build(specs []Spec, def Defaults) (*Registry, error) {
	r := &Registry{agents: make(map[string]Agent, len(specs)), pool: uci.NewPool(1)}
	client := NewClient(WithTimeout(def.Timeout))
	for i, s := range specs {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			r.Close()
			return nil, fmt.Errorf("agent #%d: id required", i+1)
		}
		if _, dup := r.agents[s.ID]; dup {
			r.Close()
			return nil, fmt.Errorf("agent %q defined twice", s.ID)
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		a, err := r.buildOne(s, def, client)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.agents[s.ID] = a
	}
	return r, nil
}

func (r *Registry) buildOne(s Spec, def Defaults, client *Client) (Agent, error) {
	switch strings.ToLower(strings.TrimSpace(s.Kind)) {
	case "uci", "engine":
		path := s.Path
		if path == "" {
			path = def.StockfishPath
		}
		style := Style{Weights: s.Weights, ForcedMarginCP: s.ForcedMarginCP}
		if err := style.Validate(); err != nil {
			return nil, fmt.Errorf("agent %q: %w", s.ID, err)
		}
		opts := []EngineOption{WithStyle(style, def.Rand)}
		if s.Book != "" {
			book, err := OpenPolyglotBook(s.Book)
			if err != nil {
				return nil, fmt.Errorf("agent %q: %w", s.ID, err)
			}
			opts = append(opts, WithBook(book))
		}
		return NewEngineAgent(s.Name, r.pool, uci.Engine{
			Path: path,
			Args: s.Args,
			Options: uci.Options{
				Threads:    s.Threads,
				HashMB:     s.HashMB,
				SkillLevel: s.Skill,
				Elo:        s.Elo,
				MultiPV:    s.MultiPV,
			},
		}, uci.Limits{Depth: s.Depth, MoveTimeMillis: s.MoveTimeMS, Nodes: s.Nodes}, opts...)
	case "llm", "openai":
		key := s.APIKey
		if key == "" && s.APIKeyEnv != "" {
			key = os.Getenv(s.APIKeyEnv)
		}
		return NewLLMAgent(LLMConfig{
			Name:         s.Name,
			BaseURL:      s.BaseURL,
			APIKey:       key,
			Model:        s.Model,
			Temperature:  s.Temperature,
			MaxTokens:    s.MaxTokens,
			SystemPrompt: s.SystemPrompt,
		}, client)
	case "http":
		return NewRemoteAgent(s.Name, s.URL, s.Headers, client)
	case "random", "":
		return NewRandomAgent(s.Name), nil
	case "scripted":
		return NewScriptedAgent(s.Name, s.Script...), nil
	default:
		return nil, fmt.Errorf("agent %q: %w: %s", s.ID, ErrUnknownKind, s.Kind)
	}
}

func (r *Registry) Get(id string) (Agent, error) {
	a, ok := r.agents[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	return a, nil
}

// IDs lists agent ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops every engine process started by uci agents.
func (r *Registry) Close() error {
	if r == nil || r.pool == nil {
		return nil
	}
	return r.pool.Close()
}
