package database

import (
	"time"
)

// Source represents a crawl source record in the database
type Source struct {
	ID            string // Database UUID
	Name          string // Configuration source identifier derived from filename
	URL           string // Feed page URL from configuration
	LastCrawledAt *time.Time
	NextCrawlAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time // Tracks last successful crawl
}

// Post represents a raw captured post record in the database
type Post struct {
	ID         string
	SourceID   string
	Identifier string // Permalink path, unique per post
	Text       string
	PostedAt   string // Platform timestamp as captured, may be empty
	ScrapedAt  time.Time
	CreatedAt  time.Time
}

// Report represents the extracted fields of a post, one row per post
type Report struct {
	ID                string
	PostID            string
	DateTime          *string
	Magnitude         *string
	Depth             *string
	Location          *string
	Intensity         *string
	BulletinText      string
	BulletinStatus    string // pending, success, failed, skipped
	BulletinFetchedAt *time.Time
	BulletinError     string
	BulletinAttempts  int
	CreatedAt         time.Time

	// Provenance of the underlying post, populated on joined reads.
	Identifier string
	PostedAt   string
	ScrapedAt  time.Time
}
