package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mvalderrama/quakewatch/app/scrape"
)

// PostRepositoryImpl handles database operations for captured posts
type PostRepositoryImpl struct {
	db *DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{db: db}
}

var _ PostRepository = (*PostRepositoryImpl)(nil)

// StorePost stores a captured post, keyed by its permalink identifier.
// Returns the row ID and whether the post was newly inserted; a post seen
// in an earlier crawl keeps its original row untouched.
func (r *PostRepositoryImpl) StorePost(sourceID string, post scrape.RawPost, scrapedAt time.Time) (string, bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO posts (source_id, identifier, text, posted_at, scraped_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (source_id, identifier) DO NOTHING
	`, sourceID, post.Identifier, post.Text, post.PostedAt, scrapedAt)
	if err != nil {
		return "", false, fmt.Errorf("failed to store post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to read insert result: %w", err)
	}

	var id string
	err = r.db.QueryRow(`
		SELECT id FROM posts WHERE source_id = ? AND identifier = ?
	`, sourceID, post.Identifier).Scan(&id)
	if err != nil {
		return "", false, fmt.Errorf("failed to read post id: %w", err)
	}

	return id, affected > 0, nil
}

// GetPosts returns the most recently scraped posts for a source
func (r *PostRepositoryImpl) GetPosts(sourceName string, limit int) ([]Post, error) {
	rows, err := r.db.Query(`
		SELECT p.id, p.source_id, p.identifier, p.text, p.posted_at, p.scraped_at, p.created_at
		FROM posts p
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
		ORDER BY p.scraped_at DESC, p.created_at DESC
		LIMIT ?
	`, sourceName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// GetAllPosts returns every post captured for a source
func (r *PostRepositoryImpl) GetAllPosts(sourceName string) ([]Post, error) {
	rows, err := r.db.Query(`
		SELECT p.id, p.source_id, p.identifier, p.text, p.posted_at, p.scraped_at, p.created_at
		FROM posts p
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
		ORDER BY p.scraped_at DESC, p.created_at DESC
	`, sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to get all posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// GetPostCount returns the total number of posts for a source
func (r *PostRepositoryImpl) GetPostCount(sourceName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM posts p
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
	`, sourceName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		var post Post
		err := rows.Scan(
			&post.ID, &post.SourceID, &post.Identifier, &post.Text,
			&post.PostedAt, &post.ScrapedAt, &post.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}
