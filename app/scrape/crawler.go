package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

// Selectors for the feed markup. The candidate queries come in a strict and a
// looser variant; a timeout on the first degrades to the second instead of
// failing the iteration.
const (
	candidateSelector         = `article[data-testid*="tweet"], article[role="article"]`
	fallbackCandidateSelector = `div[data-testid*="cellInnerDiv"] article`
	textSelector              = `div[data-testid*="tweetText"]`
	localeTextSelector        = `div[lang]`
	timeSelector              = `time`
	permalinkSelector         = `a[href*="/status/"]`
	anyLinkSelector           = `a[role="link"]`
)

// reloadEvery is the iteration interval at which a stalled crawl issues a full
// page reload when progress sits below half of the target.
const reloadEvery = 30

const defaultViewportHeight = 900

type Crawler struct {
	opts Options
}

func NewCrawler(opts Options) *Crawler {
	if opts.TargetCount <= 0 {
		opts.TargetCount = DefaultTargetCount
	}
	if opts.ScrollPause <= 0 {
		opts.ScrollPause = DefaultScrollPause
	}
	if opts.MaxScrollAttempts <= 0 {
		opts.MaxScrollAttempts = DefaultMaxScrollAttempts
	}
	if opts.EmptyThreshold <= 0 {
		opts.EmptyThreshold = DefaultEmptyThreshold
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.ElementWait <= 0 {
		opts.ElementWait = DefaultElementWait
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = DefaultKeywords
	}

	return &Crawler{opts: opts}
}

type crawlState struct {
	collected      []RawPost
	seen           map[string]struct{}
	scrollAttempts int
	emptyScrolls   int
}

// Run opens the feed and scrolls through it until the target count is
// reached, the scroll attempt limit is exhausted, or too many consecutive scrolls
// yield nothing new. The session is closed exactly once regardless of how the
// loop exits. The returned sequence is ordered by parsed PostedAt descending;
// posts with unparseable timestamps keep their discovery order at the end.
func (c *Crawler) Run(ctx context.Context, session Session, url string) ([]RawPost, error) {
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close browsing session", "error", err)
		}
	}()

	if err := session.Open(url); err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}

	c.sleep(ctx, c.settleDelay())

	viewport, err := session.ViewportHeight()
	if err != nil || viewport <= 0 {
		viewport = defaultViewportHeight
	}

	state := &crawlState{seen: make(map[string]struct{})}

	for len(state.collected) < c.opts.TargetCount && state.scrollAttempts < c.opts.MaxScrollAttempts {
		if ctx.Err() != nil {
			break
		}

		accepted := c.collectPass(session, state)

		// Scroll by a randomized fraction of the viewport so lazy
		// loading triggers reliably.
		factor := 0.7 + rand.Float64()*0.4
		session.ScrollBy(int(float64(viewport)*factor), true)
		c.sleep(ctx, c.opts.ScrollPause+time.Duration(rand.Float64()*float64(2*time.Second)))

		state.scrollAttempts++
		if accepted == 0 {
			state.emptyScrolls++
			slog.Debug("No new posts in this scroll", "consecutive", state.emptyScrolls)
		}

		if state.emptyScrolls >= c.opts.EmptyThreshold {
			slog.Info("Stopping crawl, no new posts found",
				"consecutive_empty_scrolls", state.emptyScrolls)
			break
		}

		slog.Debug("Scroll attempt completed",
			"attempt", state.scrollAttempts,
			"max_attempts", c.opts.MaxScrollAttempts,
			"collected", len(state.collected),
			"target", c.opts.TargetCount)

		// Recovery heuristic for feeds that stall mid-run.
		if state.scrollAttempts%reloadEvery == 0 && len(state.collected) < c.opts.TargetCount/2 {
			slog.Info("Crawl progress stalled, reloading page", "collected", len(state.collected))
			if err := session.Reload(); err != nil {
				slog.Warn("Page reload failed", "error", err)
			}
			c.sleep(ctx, c.settleDelay())
		}
	}

	OrderByPostedAt(state.collected)

	return state.collected, ctx.Err()
}

// collectPass inspects the currently rendered candidates once and returns how
// many new posts were accepted. A stale read aborts the remaining candidates
// of this pass only.
func (c *Crawler) collectPass(session Session, state *crawlState) int {
	accepted := 0

	for _, el := range c.findCandidates(session) {
		if len(state.collected) >= c.opts.TargetCount {
			break
		}

		post, err := c.readCandidate(el)
		if errors.Is(err, ErrStale) {
			slog.Debug("Stale element encountered, page updated during processing")
			break
		}
		if err != nil {
			slog.Debug("Skipping candidate", "error", err)
			continue
		}
		if post == nil {
			continue
		}

		if _, dup := state.seen[post.Identifier]; dup {
			continue
		}
		state.seen[post.Identifier] = struct{}{}
		state.collected = append(state.collected, *post)
		state.emptyScrolls = 0
		accepted++

		slog.Debug("Post accepted", "identifier", post.Identifier, "total", len(state.collected))
	}

	return accepted
}

// findCandidates queries the rendered post elements, degrading to the looser
// secondary query on timeout. An empty result is a valid outcome.
func (c *Crawler) findCandidates(session Session) []Element {
	elements, err := session.WaitForAll(candidateSelector, c.opts.ElementWait)
	if err != nil {
		slog.Debug("Timeout waiting for posts to load, trying fallback query", "error", err)
		return session.FindAll(fallbackCandidateSelector)
	}
	return elements
}

// readCandidate extracts one candidate into a RawPost. It returns (nil, nil)
// when the candidate is rejected (no text, no keyword match, no identifier)
// and propagates ErrStale so the caller can abandon the pass.
func (c *Crawler) readCandidate(el Element) (*RawPost, error) {
	text, err := c.candidateText(el)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	if !c.matchesKeywords(text) {
		return nil, nil
	}

	postedAt, err := c.candidateTimestamp(el)
	if err != nil {
		return nil, err
	}

	identifier, err := c.candidateIdentifier(el)
	if err != nil {
		return nil, err
	}
	if identifier == "" {
		// Without a permalink the post cannot be deduplicated.
		return nil, nil
	}

	return &RawPost{Text: text, PostedAt: postedAt, Identifier: identifier}, nil
}

// candidateText concatenates the post's text fragments, preferring the
// dedicated text blocks and falling back to locale-tagged ones.
func (c *Crawler) candidateText(el Element) (string, error) {
	fragments := el.FindAll(textSelector)
	if len(fragments) == 0 {
		fragments = el.FindAll(localeTextSelector)
	}

	var sb strings.Builder
	for _, fragment := range fragments {
		text, err := fragment.Text()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString(" ")
	}

	return norm.NFC.String(strings.TrimSpace(sb.String())), nil
}

// candidateTimestamp prefers the machine-readable datetime attribute and
// falls back to the displayed time text. A missing timestamp is not a fault.
func (c *Crawler) candidateTimestamp(el Element) (string, error) {
	times := el.FindAll(timeSelector)
	if len(times) == 0 {
		return "", nil
	}

	value, err := times[0].Attribute("datetime")
	if errors.Is(err, ErrStale) {
		return "", err
	}
	if err == nil && value != "" {
		return value, nil
	}

	text, err := times[0].Text()
	if errors.Is(err, ErrStale) {
		return "", err
	}
	return text, nil
}

func (c *Crawler) candidateIdentifier(el Element) (string, error) {
	links := el.FindAll(permalinkSelector)
	if len(links) == 0 {
		links = el.FindAll(anyLinkSelector)
	}

	for _, link := range links {
		href, err := link.Attribute("href")
		if errors.Is(err, ErrStale) {
			return "", err
		}
		if err != nil {
			slog.Debug("Failed to extract post URL", "error", err)
			continue
		}
		if strings.Contains(href, "/status/") {
			return href, nil
		}
	}

	return "", nil
}

func (c *Crawler) matchesKeywords(text string) bool {
	return MatchesKeywords(text, c.opts.Keywords)
}

// MatchesKeywords reports whether the upper-cased text contains at least one
// of the topical keywords.
func MatchesKeywords(text string, keywords []string) bool {
	upper := strings.ToUpper(text)
	for _, keyword := range keywords {
		if strings.Contains(upper, strings.ToUpper(keyword)) {
			return true
		}
	}
	return false
}

// OrderByPostedAt sorts most recent first. Unparseable timestamps never
// interrupt the run; those rows sort after the parseable ones and keep their
// discovery order among themselves.
func OrderByPostedAt(posts []RawPost) {
	parsed := make([]time.Time, len(posts))
	ok := make([]bool, len(posts))
	for i, post := range posts {
		if post.PostedAt == "" {
			continue
		}
		if t, err := dateparse.ParseAny(post.PostedAt); err == nil {
			parsed[i] = t
			ok[i] = true
		}
	}

	indices := make([]int, len(posts))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		i, j := indices[a], indices[b]
		switch {
		case ok[i] && ok[j]:
			return parsed[i].After(parsed[j])
		case ok[i]:
			return true
		default:
			return false
		}
	})

	reordered := make([]RawPost, len(posts))
	for pos, idx := range indices {
		reordered[pos] = posts[idx]
	}
	copy(posts, reordered)
}

func (c *Crawler) settleDelay() time.Duration {
	return c.opts.Settle + time.Duration(rand.Float64()*float64(c.opts.Settle)/2)
}

func (c *Crawler) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
