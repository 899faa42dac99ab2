package browser

import (
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mvalderrama/quakewatch/app/scrape"
)

// StaticSession answers the crawler's queries from a single server-rendered
// HTML snapshot fetched over plain HTTP. It is the degraded mode for feed
// mirrors that render without JavaScript: there is no lazy loading, so
// scrolls are no-ops and Reload re-fetches the page.
type StaticSession struct {
	client    *http.Client
	userAgent string
	url       string
	doc       *goquery.Document
}

var _ scrape.Session = (*StaticSession)(nil)

func NewStaticSession(client *http.Client, userAgent string) *StaticSession {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &StaticSession{client: client, userAgent: userAgent}
}

func (s *StaticSession) Open(url string) error {
	s.url = url
	return s.fetch()
}

func (s *StaticSession) fetch() error {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, s.url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}
	s.doc = doc

	return nil
}

func (s *StaticSession) WaitForAll(selector string, timeout time.Duration) ([]scrape.Element, error) {
	elements := s.FindAll(selector)
	if len(elements) == 0 {
		return nil, scrape.ErrTimeout
	}
	return elements, nil
}

func (s *StaticSession) FindAll(selector string) []scrape.Element {
	if s.doc == nil {
		return nil
	}
	return wrapSelection(s.doc.Find(selector))
}

func (s *StaticSession) ScrollBy(pixels int, smooth bool) {}

func (s *StaticSession) ViewportHeight() (int, error) {
	return 0, fmt.Errorf("static session has no viewport")
}

func (s *StaticSession) Reload() error {
	return s.fetch()
}

func (s *StaticSession) Close() error {
	s.doc = nil
	return nil
}

type staticElement struct {
	sel *goquery.Selection
}

var _ scrape.Element = (*staticElement)(nil)

func (e *staticElement) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *staticElement) Attribute(name string) (string, error) {
	value, _ := e.sel.Attr(name)
	return value, nil
}

func (e *staticElement) FindAll(selector string) []scrape.Element {
	return wrapSelection(e.sel.Find(selector))
}

func wrapSelection(sel *goquery.Selection) []scrape.Element {
	elements := make([]scrape.Element, 0, sel.Length())
	sel.Each(func(_ int, node *goquery.Selection) {
		elements = append(elements, &staticElement{sel: node})
	})
	return elements
}
