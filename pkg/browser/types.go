package browser

import (
	"errors"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrSiteNotAllowed is returned when the site policy rejects a page.
var ErrSiteNotAllowed = errors.New("browser: site not allowed by policy")

// Session is one browser with a single page.
type Session struct {
	Name string

	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time

	// CurrentURL is updated after every navigation.
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	Headless bool
	Viewport *Viewport
	// Timeout is the default operation timeout in milliseconds.
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil is one of "load", "domcontentloaded" or "networkidle".
	WaitUntil string
	// Timeout in milliseconds (0 means the session default).
	Timeout float64
}

// SessionInfo contains metadata about a browser session.
type SessionInfo struct {
	Name       string
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Default values for sessions.
const (
	DefaultTimeout        = 30000.0 // milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
	DefaultIdleTimeout    = 5 * time.Minute
)
