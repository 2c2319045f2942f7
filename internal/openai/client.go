// Package openai is a minimal chat-completions client used as the
// summarization oracle.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const completionsURL = "https://api.openai.com/v1/chat/completions"

// Client calls the OpenAI chat completions API.
type Client struct {
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	baseURL     string
	httpClient  *http.Client
}

// Option customizes a Client during construction.
type Option func(*Client)

// WithBaseURL points the client at an alternate endpoint. Used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// New builds a client. The key comes from the environment, the tuning
// parameters from the glance config.
func New(apiKey, model string, temperature float32, maxTokens int, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: OPENAI_API_KEY is not set")
	}
	c := &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		baseURL:     completionsURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends a single user prompt and returns the text content of the
// first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: call completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai: completions responded with status %s", resp.Status)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai: completions returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
