package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LLMConfig describes an OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	Name         string
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// LLMAgent asks a chat model for a move. The reply is returned verbatim.
type LLMAgent struct {
	cfg    LLMConfig
	client *Client
}

func NewLLMAgent(cfg LLMConfig, client *Client) (*LLMAgent, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("llm agent %q: model required", cfg.Name)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Model
	}
	if client == nil {
		client = NewClient()
	}
	return &LLMAgent{cfg: cfg, client: client}, nil
}

func (a *LLMAgent) Name() string { return a.cfg.Name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *LLMAgent) RequestMove(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: a.cfg.SystemPrompt},
			{Role: "user", Content: BuildPrompt(req)},
		},
		MaxTokens: a.cfg.MaxTokens,
	}
	if a.cfg.Temperature > 0 {
		t := a.cfg.Temperature
		body.Temperature = &t
	}
	headers := map[string]string{}
	if a.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + a.cfg.APIKey
	}

	raw, err := a.client.PostJSON(ctx, a.cfg.BaseURL+"/chat/completions", headers, body)
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", fmt.Errorf("chat completion error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
