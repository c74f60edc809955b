// Package gemini provides an llm.Client backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/genai"

	"github.com/entrhq/formpilot/pkg/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client implements llm.Client over google.golang.org/genai.
type Client struct {
	model    string
	baseURL  string
	generate generateFunc
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a Gemini client for apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c.generate = gc.Models.GenerateContent
	return c, nil
}

// Factory returns an llm.Factory building clients with opts.
func Factory(opts ...Option) llm.Factory {
	return func(ctx context.Context, apiKey string) (llm.Client, error) {
		c, err := NewClient(ctx, apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Generate sends prompt as a single user turn.
func (c *Client) Generate(ctx context.Context, prompt string) (*llm.Response, error) {
	resp, err := c.generate(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) {
			return nil, fmt.Errorf("gemini: network error: %w", err)
		}
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	return convert(resp), nil
}

// Model returns the model name.
func (c *Client) Model() string {
	return c.model
}

func convert(resp *genai.GenerateContentResponse) *llm.Response {
	out := &llm.Response{}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		lc := llm.Candidate{}
		if cand.Content != nil {
			lc.Content = &llm.Content{}
			for _, p := range cand.Content.Parts {
				if p == nil || p.Thought {
					continue
				}
				lc.Content.Parts = append(lc.Content.Parts, llm.Part{Text: p.Text})
			}
		}
		out.Candidates = append(out.Candidates, lc)
	}
	return out
}
