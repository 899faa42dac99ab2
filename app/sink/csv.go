package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/scrape"
)

// CSVExporter writes crawl results to timestamped CSV files under a data
// directory. Raw captures use comma delimiters; cleaned reports use
// semicolons so free-form location text survives spreadsheet imports.
type CSVExporter struct {
	dataDir string
}

// NewCSVExporter creates a new CSV exporter rooted at dataDir
func NewCSVExporter(dataDir string) *CSVExporter {
	return &CSVExporter{dataDir: dataDir}
}

var rawHeader = []string{"text", "posted_at", "identifier", "scraped_at"}

var reportHeader = []string{"date_time", "magnitude", "depth", "location", "intensity", "identifier", "posted_at", "scraped_at"}

// ExportRawPosts writes captured posts as they came off the feed.
// Returns the path of the file written.
func (e *CSVExporter) ExportRawPosts(sourceName string, posts []scrape.RawPost, scrapedAt time.Time) (string, error) {
	path := e.exportPath(sourceName, "posts_raw", scrapedAt)

	file, err := e.createFile(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(rawHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	stamp := scrapedAt.UTC().Format(time.RFC3339)
	for _, post := range posts {
		record := []string{post.Text, post.PostedAt, post.Identifier, stamp}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write post record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return path, nil
}

// ExportReports writes extracted reports with their post provenance.
// Returns the path of the file written.
func (e *CSVExporter) ExportReports(sourceName string, reports []database.Report, exportedAt time.Time) (string, error) {
	path := e.exportPath(sourceName, "reports", exportedAt)

	file, err := e.createFile(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = ';'
	if err := w.Write(reportHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, report := range reports {
		record := []string{
			deref(report.DateTime),
			deref(report.Magnitude),
			deref(report.Depth),
			deref(report.Location),
			deref(report.Intensity),
			report.Identifier,
			report.PostedAt,
			report.ScrapedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write report record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return path, nil
}

func (e *CSVExporter) exportPath(sourceName, kind string, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.csv", sourceName, kind, at.UTC().Format("20060102_150405"))
	return filepath.Join(e.dataDir, name)
}

func (e *CSVExporter) createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(e.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}
	return file, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
