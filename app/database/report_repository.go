package database

import (
	"fmt"
	"time"

	"github.com/mvalderrama/quakewatch/app/extract"
)

// ReportRepositoryImpl handles database operations for extracted reports
type ReportRepositoryImpl struct {
	db *DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB) *ReportRepositoryImpl {
	return &ReportRepositoryImpl{db: db}
}

var _ ReportRepository = (*ReportRepositoryImpl)(nil)

// UpsertReport stores the extracted fields for a post. Re-extraction
// replaces the field columns but leaves bulletin enrichment state alone.
func (r *ReportRepositoryImpl) UpsertReport(postID string, fields extract.Fields) error {
	_, err := r.db.Exec(`
		INSERT INTO reports (post_id, date_time, magnitude, depth, location, intensity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (post_id) DO UPDATE SET
			date_time = excluded.date_time,
			magnitude = excluded.magnitude,
			depth = excluded.depth,
			location = excluded.location,
			intensity = excluded.intensity
	`, postID, fields.DateTime, fields.Magnitude, fields.Depth, fields.Location, fields.Intensity)
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}
	return nil
}

// GetReports returns reports for a source with post provenance, newest first
func (r *ReportRepositoryImpl) GetReports(sourceName string, limit int) ([]Report, error) {
	rows, err := r.db.Query(`
		SELECT r.id, r.post_id, r.date_time, r.magnitude, r.depth, r.location, r.intensity,
		       r.bulletin_text, r.bulletin_status, r.bulletin_fetched_at,
		       r.bulletin_error, r.bulletin_attempts, r.created_at,
		       p.identifier, p.posted_at, p.scraped_at
		FROM reports r
		JOIN posts p ON p.id = r.post_id
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
		ORDER BY p.scraped_at DESC, r.created_at DESC
		LIMIT ?
	`, sourceName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var report Report
		err := rows.Scan(
			&report.ID, &report.PostID,
			&report.DateTime, &report.Magnitude, &report.Depth,
			&report.Location, &report.Intensity,
			&report.BulletinText, &report.BulletinStatus, &report.BulletinFetchedAt,
			&report.BulletinError, &report.BulletinAttempts, &report.CreatedAt,
			&report.Identifier, &report.PostedAt, &report.ScrapedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return reports, nil
}

// GetReportCount returns the total number of reports for a source
func (r *ReportRepositoryImpl) GetReportCount(sourceName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM reports r
		JOIN posts p ON p.id = r.post_id
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
	`, sourceName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get report count: %w", err)
	}
	return count, nil
}

// GetReportStats returns enrichment statistics for a source
func (r *ReportRepositoryImpl) GetReportStats(sourceName string) (total, enriched, pending int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(*) AS total,
			SUM(CASE WHEN r.bulletin_status = 'success' THEN 1 ELSE 0 END) AS enriched,
			SUM(CASE WHEN r.bulletin_status = 'pending' THEN 1 ELSE 0 END) AS pending
		FROM reports r
		JOIN posts p ON p.id = r.post_id
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
	`, sourceName).Scan(&total, &enriched, &pending)

	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get report stats: %w", err)
	}

	return total, enriched, pending, nil
}

// GetReportsForEnrichment returns reports still awaiting a bulletin fetch
func (r *ReportRepositoryImpl) GetReportsForEnrichment(sourceName string, limit int) ([]ReportForEnrichment, error) {
	rows, err := r.db.Query(`
		SELECT r.id, p.identifier
		FROM reports r
		JOIN posts p ON p.id = r.post_id
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
		  AND r.bulletin_status = 'pending'
		  AND r.bulletin_attempts < 3
		ORDER BY p.scraped_at DESC
		LIMIT ?
	`, sourceName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports for enrichment: %w", err)
	}
	defer rows.Close()

	var reports []ReportForEnrichment
	for rows.Next() {
		var report ReportForEnrichment
		if err := rows.Scan(&report.ID, &report.Identifier); err != nil {
			return nil, fmt.Errorf("failed to scan enrichment row: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrichment rows: %w", err)
	}

	return reports, nil
}

// UpdateEnrichmentStatus records the outcome of a bulletin fetch attempt
func (r *ReportRepositoryImpl) UpdateEnrichmentStatus(reportID string, status string, fetchedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE reports
		SET bulletin_status = ?,
		    bulletin_fetched_at = ?,
		    bulletin_error = ?,
		    bulletin_attempts = bulletin_attempts + 1
		WHERE id = ?
	`, status, fetchedAt, errorMsg, reportID)
	if err != nil {
		return fmt.Errorf("failed to update enrichment status: %w", err)
	}
	return nil
}

// UpdateBulletinAndStatus stores fetched bulletin text along with the outcome
func (r *ReportRepositoryImpl) UpdateBulletinAndStatus(reportID string, bulletinText string, status string, fetchedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE reports
		SET bulletin_text = ?,
		    bulletin_status = ?,
		    bulletin_fetched_at = ?,
		    bulletin_error = ?,
		    bulletin_attempts = bulletin_attempts + 1
		WHERE id = ?
	`, bulletinText, status, fetchedAt, errorMsg, reportID)
	if err != nil {
		return fmt.Errorf("failed to update bulletin: %w", err)
	}
	return nil
}
