// Package llm provides the language-model completion capability consumed by
// the retrieval agents: an OpenAI-compatible chat completion client with
// deterministic (temperature 0) sampling support.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GenerationConfig carries the sampling parameters for one completion call.
// Temperature and TopP are pointers so an explicit zero (deterministic
// sampling) is distinguishable from "use the provider default".
type GenerationConfig struct {
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	JSONOutput  bool     `json:"json_output,omitempty" yaml:"json_output,omitempty"`
}

// Deterministic returns a GenerationConfig pinned to temperature 0, the
// reproducibility setting every AutoAuth agent runs with.
func Deterministic(maxTokens int) GenerationConfig {
	zero := 0.0
	return GenerationConfig{Temperature: &zero, MaxTokens: maxTokens}
}

// Completer is the completion capability: one call, full instruction and
// history context in, one text completion out. Implementations must honor
// context cancellation and deadlines.
type Completer interface {
	Complete(ctx context.Context, instructions string, cfg GenerationConfig, messages []ChatMessage) (string, error)
}

// Client is an OpenAI-compatible chat completion client.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates a completion client for the given endpoint and model.
// Timeout bounds each completion call; zero means 2 minutes.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

// Complete sends one chat completion request. The instructions become the
// system message, followed by the supplied conversation messages.
func (c *Client) Complete(ctx context.Context, instructions string, cfg GenerationConfig, messages []ChatMessage) (string, error) {
	req := ChatRequest{
		Model:       c.model,
		Messages:    make([]ChatMessage, 0, len(messages)+1),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	}
	if instructions != "" {
		req.Messages = append(req.Messages, ChatMessage{Role: "system", Content: instructions})
	}
	req.Messages = append(req.Messages, messages...)
	if cfg.JSONOutput {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("completion API error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	return &chatResp, nil
}
