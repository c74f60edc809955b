package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entrhq/formpilot/pkg/kv"
)

// CredentialsKey is the KV key holding the AI credential record.
const CredentialsKey = "formpilot.credentials"

// Credentials is the persisted credential record.
type Credentials struct {
	APIKey string `json:"apiKey"`
}

// LoadCredentials reads the credential record. A missing record yields a
// zero Credentials and no error.
func LoadCredentials(ctx context.Context, store kv.Store) (Credentials, error) {
	var c Credentials
	raw, ok, err := store.Get(ctx, CredentialsKey)
	if err != nil {
		return c, fmt.Errorf("llm: read credentials: %w", err)
	}
	if !ok {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("llm: decode credentials: %w", err)
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	return c, nil
}

// SaveCredentials stores apiKey as the credential record.
func SaveCredentials(ctx context.Context, store kv.Store, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("llm: API key must not be empty")
	}
	raw, err := json.Marshal(Credentials{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("llm: encode credentials: %w", err)
	}
	if err := store.Set(ctx, CredentialsKey, raw); err != nil {
		return fmt.Errorf("llm: write credentials: %w", err)
	}
	return nil
}

// ClearCredentials removes the credential record.
func ClearCredentials(ctx context.Context, store kv.Store) error {
	if err := store.Delete(ctx, CredentialsKey); err != nil {
		return fmt.Errorf("llm: clear credentials: %w", err)
	}
	return nil
}

// Mask hides all but the last four characters of key.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
