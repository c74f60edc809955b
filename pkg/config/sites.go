package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

const (
	// SectionIDSites is the identifier for the site allow/deny section
	SectionIDSites = "sites"
)

// SitesSection restricts which hosts formpilot will fill.
//
// Patterns are globs over the lower-cased host name with '.' as the
// separator, so "*.example.com" matches "shop.example.com" but not
// "a.b.example.com"; use "**.example.com" for any depth.
type SitesSection struct {
	allowed []string
	denied  []string
	matcher *PatternMatcher
	mu      sync.RWMutex
}

// NewSitesSection creates a section that allows every host.
func NewSitesSection() *SitesSection {
	s := &SitesSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *SitesSection) ID() string {
	return SectionIDSites
}

// Title returns the section title.
func (s *SitesSection) Title() string {
	return "Sites"
}

// Description returns the section description.
func (s *SitesSection) Description() string {
	return "Host glob patterns. Denied patterns win; an empty allow list allows every host."
}

// Data returns the current configuration data.
func (s *SitesSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"allowed": toInterfaces(s.allowed),
		"denied":  toInterfaces(s.denied),
	}
}

// SetData updates the configuration from the provided data.
func (s *SitesSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	allowed, err := stringList(data, "allowed")
	if err != nil {
		return err
	}
	denied, err := stringList(data, "denied")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if allowed == nil {
		allowed = s.allowed
	}
	if denied == nil {
		denied = s.denied
	}
	matcher, err := NewPatternMatcher(allowed, denied)
	if err != nil {
		return err
	}
	s.allowed, s.denied, s.matcher = allowed, denied, matcher
	return nil
}

// Validate checks that every pattern compiles.
func (s *SitesSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := NewPatternMatcher(s.allowed, s.denied)
	return err
}

// Reset resets the section to default configuration.
func (s *SitesSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed = []string{}
	s.denied = []string{}
	s.matcher = &PatternMatcher{}
}

// Allow adds an allowed pattern.
func (s *SitesSection) Allow(pattern string) error {
	return s.add(pattern, true)
}

// Deny adds a denied pattern.
func (s *SitesSection) Deny(pattern string) error {
	return s.add(pattern, false)
}

func (s *SitesSection) add(pattern string, allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, denied := s.allowed, s.denied
	if allow {
		allowed = append(append([]string{}, allowed...), pattern)
	} else {
		denied = append(append([]string{}, denied...), pattern)
	}
	matcher, err := NewPatternMatcher(allowed, denied)
	if err != nil {
		return err
	}
	s.allowed, s.denied, s.matcher = allowed, denied, matcher
	return nil
}

// IsAllowed reports whether host (or a URL) may be filled.
func (s *SitesSection) IsAllowed(hostOrURL string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matcher.IsAllowed(HostOf(hostOrURL))
}

// HostOf extracts the lower-cased host from a URL or host[:port] string.
// It returns "" for inputs without a host, such as file URLs.
func HostOf(hostOrURL string) string {
	v := strings.TrimSpace(hostOrURL)
	if strings.Contains(v, "://") {
		u, err := url.Parse(v)
		if err != nil {
			return ""
		}
		return strings.ToLower(u.Hostname())
	}
	if h, _, err := net.SplitHostPort(v); err == nil {
		v = h
	}
	return strings.ToLower(v)
}

// PatternMatcher handles glob pattern matching for host access control
type PatternMatcher struct {
	allowedPatterns []glob.Glob
	deniedPatterns  []glob.Glob
}

// NewPatternMatcher creates a new pattern matcher
func NewPatternMatcher(allowed, denied []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{}

	for _, pattern := range allowed {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		pm.allowedPatterns = append(pm.allowedPatterns, g)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		pm.deniedPatterns = append(pm.deniedPatterns, g)
	}

	return pm, nil
}

// IsAllowed returns true if the host is allowed by the pattern rules
func (pm *PatternMatcher) IsAllowed(host string) bool {
	// Denied patterns take precedence
	for _, pattern := range pm.deniedPatterns {
		if pattern.Match(host) {
			return false
		}
	}

	if len(pm.allowedPatterns) == 0 {
		return true
	}

	for _, pattern := range pm.allowedPatterns {
		if pattern.Match(host) {
			return true
		}
	}

	return false
}

func stringList(data map[string]interface{}, key string) ([]string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid %s pattern at index %d: expected string, got %T", key, i, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid %s type: expected list, got %T", key, raw)
	}
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
