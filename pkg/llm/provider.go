// Package llm provides the abstraction over generative-AI backends used to
// produce form values.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/entrhq/formpilot/pkg/llm/gemini"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    client, err := gemini.NewClient(ctx, os.Getenv("GEMINI_API_KEY"),
//	        gemini.WithModel("gemini-2.0-flash"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    resp, err := client.Generate(ctx, "Say hello")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(resp.Text())
//	}
package llm

import (
	"context"
	"strings"
)

// Client is a single-shot text generation backend.
//
// Implementations translate the provider's native reply into a Response
// without judging it: an empty candidate list or blank text is returned as
// is and left for the caller to validate. Transport and API errors are
// returned with the provider's message intact so callers can classify them
// (rate limits, 5xx statuses, timeouts).
type Client interface {
	// Generate sends prompt to the model and returns its reply.
	Generate(ctx context.Context, prompt string) (*Response, error)

	// Model returns the model name requests are sent to.
	Model() string
}

// Factory builds a Client for an API key.
type Factory func(ctx context.Context, apiKey string) (Client, error)

// Response is a provider-neutral generation result.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one alternative reply.
type Candidate struct {
	Content *Content `json:"content,omitempty"`
}

// Content is the body of a candidate.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is one fragment of content.
type Part struct {
	Text string `json:"text"`
}

// TextResponse wraps a plain reply as a single-candidate Response.
func TextResponse(text string) *Response {
	return &Response{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: text}}}}}}
}

// Text returns the concatenated text of the first candidate that has any.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if strings.TrimSpace(b.String()) != "" {
			return b.String()
		}
	}
	return ""
}
