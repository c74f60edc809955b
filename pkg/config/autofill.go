package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDAutofill is the identifier for the autofill section
	SectionIDAutofill = "autofill"

	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// AutofillSection holds the defaults of a fill run.
type AutofillSection struct {
	UseProfileData   bool
	FallbackToAI     bool
	MaxAttempts      int
	BaseDelay        time.Duration
	MaxPromptTokens  int
	SanitizeAIValues bool
	mu               sync.RWMutex
}

// NewAutofillSection creates the section with default settings.
func NewAutofillSection() *AutofillSection {
	s := &AutofillSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *AutofillSection) ID() string {
	return SectionIDAutofill
}

// Title returns the section title.
func (s *AutofillSection) Title() string {
	return "Autofill"
}

// Description returns the section description.
func (s *AutofillSection) Description() string {
	return "Data source selection, AI retry policy and prompt budget."
}

// Data returns the current configuration data.
func (s *AutofillSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"use_profile_data":   s.UseProfileData,
		"fallback_to_ai":     s.FallbackToAI,
		"max_attempts":       s.MaxAttempts,
		"base_delay_ms":      s.BaseDelay.Milliseconds(),
		"max_prompt_tokens":  s.MaxPromptTokens,
		"sanitize_ai_values": s.SanitizeAIValues,
	}
}

// SetData updates the configuration from the provided data.
func (s *AutofillSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["use_profile_data"].(bool); ok {
		s.UseProfileData = v
	}
	if v, ok := data["fallback_to_ai"].(bool); ok {
		s.FallbackToAI = v
	}
	if v, ok := data["sanitize_ai_values"].(bool); ok {
		s.SanitizeAIValues = v
	}
	if v, ok := toInt(data["max_attempts"]); ok {
		s.MaxAttempts = v
	}
	if v, ok := toInt(data["base_delay_ms"]); ok {
		s.BaseDelay = time.Duration(v) * time.Millisecond
	}
	if v, ok := toInt(data["max_prompt_tokens"]); ok {
		s.MaxPromptTokens = v
	}
	return nil
}

// Validate checks numeric bounds.
func (s *AutofillSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.BaseDelay < 0 {
		return fmt.Errorf("base_delay_ms must not be negative")
	}
	if s.MaxPromptTokens < 0 {
		return fmt.Errorf("max_prompt_tokens must not be negative")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *AutofillSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UseProfileData = true
	s.FallbackToAI = true
	s.MaxAttempts = defaultMaxAttempts
	s.BaseDelay = defaultBaseDelay
	s.MaxPromptTokens = 0
	s.SanitizeAIValues = true
}

// Snapshot returns a copy of the settings without the lock.
func (s *AutofillSection) Snapshot() AutofillSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AutofillSettings{
		UseProfileData:   s.UseProfileData,
		FallbackToAI:     s.FallbackToAI,
		MaxAttempts:      s.MaxAttempts,
		BaseDelay:        s.BaseDelay,
		MaxPromptTokens:  s.MaxPromptTokens,
		SanitizeAIValues: s.SanitizeAIValues,
	}
}

// AutofillSettings is a point-in-time copy of AutofillSection.
type AutofillSettings struct {
	UseProfileData   bool
	FallbackToAI     bool
	MaxAttempts      int
	BaseDelay        time.Duration
	MaxPromptTokens  int
	SanitizeAIValues bool
}

// toInt accepts the numeric types JSON decoding and callers produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
