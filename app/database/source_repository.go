package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SourceRepositoryImpl handles database operations for crawl sources
type SourceRepositoryImpl struct {
	db *DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *DB) *SourceRepositoryImpl {
	return &SourceRepositoryImpl{db: db}
}

var _ SourceRepository = (*SourceRepositoryImpl)(nil)

// UpsertSource inserts or updates a source row and returns its database ID
func (r *SourceRepositoryImpl) UpsertSource(sourceName, sourceURL string) (string, error) {
	_, err := r.db.Exec(`
		INSERT INTO sources (name, url)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			updated_at = CURRENT_TIMESTAMP
	`, sourceName, sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to upsert source: %w", err)
	}

	var id string
	err = r.db.QueryRow("SELECT id FROM sources WHERE name = ?", sourceName).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to read source id: %w", err)
	}

	return id, nil
}

// GetSource returns a source by its configuration name, or nil if unknown
func (r *SourceRepositoryImpl) GetSource(sourceName string) (*Source, error) {
	var source Source
	err := r.db.QueryRow(`
		SELECT id, name, url, last_crawled_at, next_crawl_at, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, sourceName).Scan(
		&source.ID, &source.Name, &source.URL,
		&source.LastCrawledAt, &source.NextCrawlAt,
		&source.CreatedAt, &source.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return &source, nil
}

// GetSourceCount returns the number of registered sources
func (r *SourceRepositoryImpl) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// UpdateCrawlTimes records a completed crawl and schedules the next one
func (r *SourceRepositoryImpl) UpdateCrawlTimes(sourceName string, nextCrawl time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_crawled_at = CURRENT_TIMESTAMP,
		    next_crawl_at = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, nextCrawl, sourceName)
	if err != nil {
		return fmt.Errorf("failed to update crawl times: %w", err)
	}
	return nil
}
