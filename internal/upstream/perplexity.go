package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/discolens/discolens-bridge/internal/config"
)

const defaultPerplexityURL = "https://api.perplexity.ai"

// Perplexity generates artist summaries grounded on current web sources.
// Its API mirrors the chat-completions shape.
type Perplexity struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

// NewPerplexity creates a Perplexity adapter. A nil httpClient defaults to
// http.DefaultClient.
func NewPerplexity(cfg config.PerplexityConfig, httpClient *http.Client) *Perplexity {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultPerplexityURL
	}

	return &Perplexity{
		apiURL: apiURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		client: orDefault(httpClient),
	}
}

// Complete sends a single-turn completion request and returns the first
// choice's message content.
func (p *Perplexity) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []chatMessage{}
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("could not create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	body, err := do(p.client, req)
	if err != nil {
		return "", err
	}

	return firstChoice(body)
}
