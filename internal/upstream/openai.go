package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/discolens/discolens-bridge/internal/config"
	"github.com/discolens/discolens-bridge/internal/proxy"
)

const defaultOpenAIURL = "https://api.openai.com"

// OpenAI generates the short-form summaries and facts served by the AI
// text routes.
type OpenAI struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAI creates an OpenAI chat-completions adapter. A nil httpClient
// defaults to http.DefaultClient.
func NewOpenAI(cfg config.OpenAIConfig, httpClient *http.Client) *OpenAI {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultOpenAIURL
	}

	return &OpenAI{
		apiURL: apiURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		client: orDefault(httpClient),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a single-turn completion request, optionally preceded by
// a system prompt, and returns the first choice's message content.
func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []chatMessage{}
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("could not create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	body, err := do(o.client, req)
	if err != nil {
		return "", err
	}

	return firstChoice(body)
}

// firstChoice extracts the first message content from a chat-completion
// style response body. Both OpenAI and Perplexity use this shape.
func firstChoice(body string) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return "", &proxy.UpstreamError{
			StatusCode: http.StatusBadGateway,
			Body:       "unreadable completion response",
		}
	}

	if len(parsed.Choices) == 0 {
		return "", &proxy.UpstreamError{
			StatusCode: http.StatusBadGateway,
			Body:       "completion response contained no choices",
		}
	}

	return parsed.Choices[0].Message.Content, nil
}
