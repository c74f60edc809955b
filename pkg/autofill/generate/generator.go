// Package generate asks a generative-AI backend to propose values for
// scanned form fields.
package generate

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/entrhq/formpilot/pkg/kv"
	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/entrhq/formpilot/pkg/llm/tokenizer"
	"github.com/entrhq/formpilot/pkg/logging"
)

const (
	// DefaultMaxAttempts is the total number of AI calls per Generate.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the first backoff step.
	DefaultBaseDelay = time.Second

	maxJitter = time.Second
)

// Generator produces raw AI replies for serialized form fields.
type Generator struct {
	store   kv.Store
	factory llm.Factory
	tok     *tokenizer.Tokenizer
	logger  *logging.Logger

	maxAttempts     int
	baseDelay       time.Duration
	maxPromptTokens int
	sleep           func(ctx context.Context, d time.Duration) error
	jitter          func() time.Duration

	mu      sync.Mutex
	clients map[string]llm.Client
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxAttempts sets the total number of attempts. Values below one are
// ignored.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the first backoff step.
func WithBaseDelay(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.baseDelay = d
		}
	}
}

// WithMaxPromptTokens rejects prompts longer than n tokens. Zero disables
// the check.
func WithMaxPromptTokens(n int) Option {
	return func(g *Generator) { g.maxPromptTokens = n }
}

// WithTokenizer sets the tokenizer used for the prompt budget.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(g *Generator) { g.tok = t }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithSleep replaces the backoff wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Generator) { g.sleep = fn }
}

// WithJitter replaces the random jitter source.
func WithJitter(fn func() time.Duration) Option {
	return func(g *Generator) { g.jitter = fn }
}

// NewGenerator creates a generator that reads its API key from store and
// builds clients with factory.
func NewGenerator(store kv.Store, factory llm.Factory, opts ...Option) *Generator {
	g := &Generator{
		store:       store,
		factory:     factory,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepContext,
		jitter:      randomJitter,
		clients:     make(map[string]llm.Client),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrDiscard(g.logger, "generate")
	return g
}

// Generate builds the prompt for serializedFields and instructions and
// returns the model's raw reply text.
func (g *Generator) Generate(ctx context.Context, serializedFields, instructions string) (string, error) {
	return g.GenerateFor(ctx, PromptInput{Fields: serializedFields, Instructions: instructions})
}

// GenerateFor is Generate with the full prompt input.
func (g *Generator) GenerateFor(ctx context.Context, in PromptInput) (string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	p := BuildPrompt(in)
	if g.maxPromptTokens > 0 {
		if n := g.tok.CountTokens(p); n > g.maxPromptTokens {
			return "", fmt.Errorf("%w: %d tokens, limit %d", ErrPromptTooLarge, n, g.maxPromptTokens)
		}
	}

	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := g.baseDelay*time.Duration(1<<uint(attempt-1)) + g.jitter()
			g.logger.Warnf("AI call failed (%v), retry %d/%d in %s", lastErr, attempt+1, g.maxAttempts, delay)
			if err := g.sleep(ctx, delay); err != nil {
				return "", fmt.Errorf("generate: cancelled during retry backoff: %w", err)
			}
		}

		text, err := g.call(ctx, client, p)
		if err == nil {
			g.logger.Debugf("AI reply received from %s after %d attempt(s)", client.Model(), attempt+1)
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("generate: failed after %d attempts: %w", g.maxAttempts, lastErr)
}

func (g *Generator) call(ctx context.Context, client llm.Client, prompt string) (string, error) {
	resp, err := client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrInvalidResponseStructure
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// client returns the cached client for the stored API key, building it on
// first use.
func (g *Generator) client(ctx context.Context) (llm.Client, error) {
	if g.store == nil || g.factory == nil {
		return nil, &ConfigurationError{Message: "AI service is not configured"}
	}
	creds, err := llm.LoadCredentials(ctx, g.store)
	if err != nil {
		return nil, err
	}
	if creds.APIKey == "" {
		return nil, &ConfigurationError{Message: "no API key configured"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[creds.APIKey]; ok {
		return c, nil
	}
	c, err := g.factory(ctx, creds.APIKey)
	if err != nil {
		return nil, &ConfigurationError{Message: err.Error()}
	}
	g.clients[creds.APIKey] = c
	return c, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(maxJitter)))
}
