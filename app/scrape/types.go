package scrape

import (
	"errors"
	"time"
)

// RawPost is a single keyword-matching post captured during one crawl run.
// Identifier is the post permalink and doubles as the deduplication key.
type RawPost struct {
	Text       string
	PostedAt   string // timestamp string as presented by the source, not parsed here
	Identifier string
}

// Options holds the tunables for one crawl invocation.
type Options struct {
	TargetCount       int
	ScrollPause       time.Duration
	MaxScrollAttempts int
	EmptyThreshold    int
	Keywords          []string

	// Settle is the base wait after opening or reloading the page,
	// jittered up to +50% per wait.
	Settle time.Duration
	// ElementWait bounds how long a candidate query may block before the
	// fallback query is tried.
	ElementWait time.Duration
}

const (
	DefaultTargetCount       = 40
	DefaultScrollPause       = 2500 * time.Millisecond
	DefaultMaxScrollAttempts = 300
	DefaultEmptyThreshold    = 15
	DefaultSettle            = 8 * time.Second
	DefaultElementWait       = 10 * time.Second
)

// DefaultKeywords is the topical filter used for PHIVOLCS earthquake bulletins.
var DefaultKeywords = []string{
	"EARTHQUAKE", "MAGNITUDE", "LINDOL", "INTENSITY", "PHIVOLCS", "SEISMIC", "TREMOR",
}

var (
	// ErrStale is returned by Element reads when the underlying node became
	// invalid mid-read, e.g. due to concurrent DOM mutation.
	ErrStale = errors.New("element is stale")
	// ErrTimeout is returned by Session.WaitForAll when no elements appeared
	// within the given timeout.
	ErrTimeout = errors.New("timed out waiting for elements")
)

// Session is the rendering/automation collaborator the crawler drives. The
// crawler issues intents against it and never concerns itself with how pages
// are rendered.
type Session interface {
	Open(url string) error
	// WaitForAll blocks until at least one element matches selector or the
	// timeout elapses, in which case it returns ErrTimeout.
	WaitForAll(selector string, timeout time.Duration) ([]Element, error)
	// FindAll never fails; it returns an empty slice when nothing matches.
	FindAll(selector string) []Element
	ScrollBy(pixels int, smooth bool)
	ViewportHeight() (int, error)
	Reload() error
	Close() error
}

// Element is an immutable snapshot handle onto one rendered node. Reads may
// fail with ErrStale at any time.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	FindAll(selector string) []Element
}
