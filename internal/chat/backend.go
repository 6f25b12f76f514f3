package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPBackend asks the chat server's turn endpoint for a model reply
// and hands the raw response stream to the controller.
type HTTPBackend struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewHTTPBackend creates a backend against the server at baseURL.
// tokens may be nil; turns work without a credential.
func NewHTTPBackend(baseURL string, tokens TokenSource) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		tokens: tokens,
	}
}

// StreamTurn opens one response stream for a turn. The caller owns the
// returned body and must close it.
func (b *HTTPBackend) StreamTurn(ctx context.Context, turn *TurnRequest) (io.ReadCloser, error) {
	data, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/recipe", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.tokens != nil && b.tokens.SignedIn() {
		token, err := b.tokens.Token(ctx)
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// StaticTokens is a TokenSource backed by a fixed credential, typically
// one handed to the CLI via its environment.
type StaticTokens struct {
	token string
}

// NewStaticTokens wraps a fixed token. An empty token means signed out.
func NewStaticTokens(token string) *StaticTokens {
	return &StaticTokens{token: token}
}

func (s *StaticTokens) SignedIn() bool { return s.token != "" }

func (s *StaticTokens) Token(ctx context.Context) (string, error) {
	return s.token, nil
}
