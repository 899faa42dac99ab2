package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"

	"github.com/mvalderrama/quakewatch/app/scrape"
)

// Source pulls an RSS/Atom rendering of the same account (e.g. a Nitter feed)
// and maps its entries onto raw posts. It is the fallback path when a browser
// crawl comes back empty: slower to update than the live feed but immune to
// rendering changes.
type Source struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
}

func NewSource(httpClient *http.Client, userAgent string) *Source {
	return &Source{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
	}
}

// Run fetches the mirror feed and returns the keyword-matching, deduplicated
// posts, most recent first. Entries without a link are dropped; they cannot
// be deduplicated against crawled posts.
func (s *Source) Run(ctx context.Context, mirrorURL string, keywords []string) ([]scrape.RawPost, error) {
	data, err := s.fetch(ctx, mirrorURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mirror feed: %w", err)
	}

	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mirror feed: %w", err)
	}

	seen := make(map[string]struct{})
	posts := make([]scrape.RawPost, 0, len(feed.Items))

	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		post, ok := s.normalizeItem(item, keywords)
		if !ok {
			continue
		}

		if _, dup := seen[post.Identifier]; dup {
			continue
		}
		seen[post.Identifier] = struct{}{}
		posts = append(posts, post)
	}

	scrape.OrderByPostedAt(posts)

	slog.Debug("Mirror feed processed", "url", mirrorURL, "entries", len(feed.Items), "accepted", len(posts))

	return posts, nil
}

func (s *Source) normalizeItem(item *gofeed.Item, keywords []string) (scrape.RawPost, bool) {
	text := item.Title
	if item.Description != "" && item.Description != item.Title {
		text = text + "\n" + item.Description
	}
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return scrape.RawPost{}, false
	}

	if !scrape.MatchesKeywords(text, keywords) {
		return scrape.RawPost{}, false
	}

	identifier := item.Link
	if identifier == "" {
		identifier = item.GUID
	}
	if identifier == "" {
		return scrape.RawPost{}, false
	}

	return scrape.RawPost{
		Text:       text,
		PostedAt:   item.Published,
		Identifier: identifier,
	}, true
}

func (s *Source) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
