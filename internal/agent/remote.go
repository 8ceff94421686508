package agent

import (
	"context"
	"fmt"
	"strings"
)

// RemoteAgent posts the request to an arbitrary HTTP endpoint and returns the raw body.
type RemoteAgent struct {
	name    string
	url     string
	headers map[string]string
	client  *Client
}

type remotePayload struct {
	SessionID  string   `json:"session_id"`
	FEN        string   `json:"fen"`
	Side       string   `json:"side"`
	LegalMoves []string `json:"legal_moves"`
	History    []string `json:"history"`
	Ply        int      `json:"ply"`
	Prompt     string   `json:"prompt"`
}

func NewRemoteAgent(name, url string, headers map[string]string, client *Client) (*RemoteAgent, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("http agent %q: url required", name)
	}
	if client == nil {
		client = NewClient()
	}
	return &RemoteAgent{name: name, url: url, headers: headers, client: client}, nil
}

func (a *RemoteAgent) Name() string { return a.name }

func (a *RemoteAgent) RequestMove(ctx context.Context, req Request) (string, error) {
	raw, err := a.client.PostJSON(ctx, a.url, a.headers, remotePayload{
		SessionID:  req.SessionID,
		FEN:        req.FEN,
		Side:       string(req.Side),
		LegalMoves: req.LegalMoves,
		History:    req.History,
		Ply:        req.Ply,
		Prompt:     BuildPrompt(req),
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
