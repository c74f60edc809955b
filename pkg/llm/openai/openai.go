// Package openai provides an llm.Client for OpenAI-compatible chat
// completion APIs.
//
// Example usage:
//
//	client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o-mini"))
//	if err != nil {
//	    panic(err)
//	}
//	resp, err := client.Generate(ctx, prompt)
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/openai/openai-go"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
)

// Client implements llm.Client for OpenAI-compatible APIs.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model to use for completions.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs such as
// Azure OpenAI or a local model server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for apiKey.
//
// If baseURL is not provided via WithBaseURL, OPENAI_BASE_URL is consulted.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	c := &Client{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			c.baseURL = strings.TrimRight(envBaseURL, "/")
		}
	}
	return c, nil
}

// Factory returns an llm.Factory building clients with opts.
func Factory(opts ...Option) llm.Factory {
	return func(_ context.Context, apiKey string) (llm.Client, error) {
		c, err := NewClient(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Generate sends prompt as a single user message and converts every
// returned choice into a candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (*llm.Response, error) {
	reqBody := map[string]interface{}{
		"model":    c.model,
		"messages": []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}

	out := &llm.Response{Candidates: make([]llm.Candidate, 0, len(completion.Choices))}
	for _, choice := range completion.Choices {
		out.Candidates = append(out.Candidates, llm.Candidate{
			Content: &llm.Content{Parts: []llm.Part{{Text: choice.Message.Content}}},
		})
	}
	return out, nil
}

// Model returns the model name being used.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the base URL being used.
func (c *Client) BaseURL() string {
	return c.baseURL
}
