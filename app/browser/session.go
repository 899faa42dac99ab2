package browser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/mvalderrama/quakewatch/app/scrape"
)

// defaultUserAgent mirrors a plain desktop browser so the feed serves the
// regular timeline markup.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36"

var launchArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-blink-features=AutomationControlled",
}

// Session drives a headless Chromium page through playwright and exposes it
// as a scrape.Session.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	closed  bool
}

var _ scrape.Session = (*Session)(nil)

func NewSession(headless bool, userAgent string) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     launchArgs,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Session{pw: pw, browser: browser, page: page}, nil
}

func (s *Session) Open(url string) error {
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) WaitForAll(selector string, timeout time.Duration) ([]scrape.Element, error) {
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", scrape.ErrTimeout, err)
	}
	return s.FindAll(selector), nil
}

func (s *Session) FindAll(selector string) []scrape.Element {
	handles, err := s.page.QuerySelectorAll(selector)
	if err != nil {
		slog.Debug("Element query failed", "selector", selector, "error", err)
		return nil
	}
	return wrapHandles(handles)
}

func (s *Session) ScrollBy(pixels int, smooth bool) {
	behavior := "auto"
	if smooth {
		behavior = "smooth"
	}
	script := fmt.Sprintf("window.scrollBy({top: %d, left: 0, behavior: '%s'})", pixels, behavior)
	if _, err := s.page.Evaluate(script); err != nil {
		slog.Debug("Scroll failed", "error", err)
	}
}

func (s *Session) ViewportHeight() (int, error) {
	result, err := s.page.Evaluate("window.innerHeight")
	if err != nil {
		return 0, fmt.Errorf("failed to read viewport height: %w", err)
	}
	switch v := result.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("unexpected viewport height type %T", result)
	}
}

func (s *Session) Reload() error {
	if _, err := s.page.Reload(); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.browser.Close(); err != nil {
		s.pw.Stop()
		return fmt.Errorf("failed to close browser: %w", err)
	}
	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type element struct {
	handle playwright.ElementHandle
}

var _ scrape.Element = (*element)(nil)

func (e *element) Text() (string, error) {
	text, err := e.handle.TextContent()
	if err != nil {
		return "", mapElementErr(err)
	}
	return text, nil
}

func (e *element) Attribute(name string) (string, error) {
	value, err := e.handle.GetAttribute(name)
	if err != nil {
		return "", mapElementErr(err)
	}
	return value, nil
}

func (e *element) FindAll(selector string) []scrape.Element {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	return wrapHandles(handles)
}

func wrapHandles(handles []playwright.ElementHandle) []scrape.Element {
	elements := make([]scrape.Element, 0, len(handles))
	for _, handle := range handles {
		if handle != nil {
			elements = append(elements, &element{handle: handle})
		}
	}
	return elements
}

// mapElementErr translates playwright's detached-node faults into the
// crawler's staleness sentinel; anything else passes through wrapped.
func mapElementErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "not attached") || strings.Contains(msg, "Execution context was destroyed") {
		return fmt.Errorf("%w: %s", scrape.ErrStale, err)
	}
	return fmt.Errorf("element read failed: %w", err)
}
