package generate

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyResponse is returned when the reply has candidates but none
	// carries non-empty text.
	ErrEmptyResponse = errors.New("generate: AI returned an empty response")

	// ErrInvalidResponseStructure is returned when the reply has no candidates.
	ErrInvalidResponseStructure = errors.New("generate: AI response has no candidates")

	// ErrPromptTooLarge is returned when the prompt exceeds the token budget.
	ErrPromptTooLarge = errors.New("generate: prompt exceeds token budget")
)

// ConfigurationError reports that the AI service cannot be used as
// configured, typically because no API key is stored.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "generate: configuration error: " + e.Message
}

// retryablePatterns are matched case-insensitively against error messages.
var retryablePatterns = []string{
	"rate limit",
	"quota exceeded",
	"network error",
	"timeout",
	"503",
	"502",
	"429",
}

// IsRetryable reports whether err looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrInvalidResponseStructure) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
