package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate loads url in the session's page.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = playwright.Float(opts.Timeout)
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("browser: navigation failed: %w", err)
	}
	s.CurrentURL = s.Page.URL()
	return nil
}

// Content returns the page's current serialized HTML.
func (s *Session) Content() (string, error) {
	s.UpdateLastUsed()
	return s.Page.Content()
}

// URL returns the page's current URL.
func (s *Session) URL() string {
	return s.Page.URL()
}

// Fill types value into the first element matching selector. Playwright
// emits the input event.
func (s *Session) Fill(selector, value string) error {
	s.UpdateLastUsed()
	return s.first(selector).Fill(value)
}

// SetChecked checks or unchecks the first element matching selector.
func (s *Session) SetChecked(selector string, checked bool) error {
	s.UpdateLastUsed()
	return s.first(selector).SetChecked(checked)
}

// SelectIndex selects the option at index of the first select matching
// selector.
func (s *Session) SelectIndex(selector string, index int) error {
	s.UpdateLastUsed()
	_, err := s.first(selector).SelectOption(playwright.SelectOptionValues{
		Indexes: &[]int{index},
	})
	return err
}

// DispatchEvent fires a DOM event of type typ at the first element
// matching selector.
func (s *Session) DispatchEvent(selector, typ string) error {
	s.UpdateLastUsed()
	return s.first(selector).DispatchEvent(typ, nil)
}

func (s *Session) first(selector string) playwright.Locator {
	return s.Page.Locator(selector).First()
}

func (s *Session) close() error {
	return errors.Join(s.Page.Close(), s.Context.Close(), s.Browser.Close())
}
