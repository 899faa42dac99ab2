package sink

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/scrape"
)

func strPtr(s string) *string { return &s }

func TestExportRawPosts(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)

	scrapedAt := time.Date(2024, 3, 5, 10, 4, 0, 0, time.UTC)
	posts := []scrape.RawPost{
		{
			Text:       "EARTHQUAKE Magnitude = 5.1, with \"quoted\" text",
			PostedAt:   "2024-03-05T10:04:00.000Z",
			Identifier: "/phivolcs_dost/status/100",
		},
		{
			Text:       "EARTHQUAKE bulletin\nwith a line break",
			Identifier: "/phivolcs_dost/status/101",
		},
	}

	path, err := exporter.ExportRawPosts("phivolcs", posts, scrapedAt)
	if err != nil {
		t.Fatalf("ExportRawPosts() error = %v", err)
	}
	if !strings.Contains(path, "phivolcs_posts_raw_20240305_100400.csv") {
		t.Errorf("Unexpected export path %q", path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected header + 2 records, got %d rows", len(records))
	}
	if records[0][0] != "text" || records[0][3] != "scraped_at" {
		t.Errorf("Unexpected header %v", records[0])
	}
	if records[1][2] != "/phivolcs_dost/status/100" {
		t.Errorf("Expected identifier in record, got %q", records[1][2])
	}
	if records[1][3] != "2024-03-05T10:04:00Z" {
		t.Errorf("Expected RFC3339 scraped_at, got %q", records[1][3])
	}
	if !strings.Contains(records[2][0], "line break") {
		t.Errorf("Expected multi-line text preserved, got %q", records[2][0])
	}
}

func TestExportReports(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)

	exportedAt := time.Date(2024, 3, 5, 10, 4, 0, 0, time.UTC)
	reports := []database.Report{
		{
			DateTime:   strPtr("05 March 2024 06:04 PM"),
			Magnitude:  strPtr("5.1"),
			Depth:      strPtr("10 km"),
			Location:   strPtr("012 km N 28 deg E of Surigao City; Surigao del Norte"),
			Identifier: "/phivolcs_dost/status/100",
			PostedAt:   "2024-03-05T10:04:00.000Z",
			ScrapedAt:  exportedAt,
		},
	}

	path, err := exporter.ExportReports("phivolcs", reports, exportedAt)
	if err != nil {
		t.Fatalf("ExportReports() error = %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected header + 1 record, got %d rows", len(records))
	}
	record := records[1]
	if record[1] != "5.1" {
		t.Errorf("Expected magnitude 5.1, got %q", record[1])
	}
	if record[3] != "012 km N 28 deg E of Surigao City; Surigao del Norte" {
		t.Errorf("Expected semicolons preserved inside location, got %q", record[3])
	}
	if record[4] != "" {
		t.Errorf("Expected empty intensity cell, got %q", record[4])
	}
	if record[5] != "/phivolcs_dost/status/100" {
		t.Errorf("Expected identifier provenance, got %q", record[5])
	}
	if record[7] != "2024-03-05T10:04:00Z" {
		t.Errorf("Expected RFC3339 scraped_at, got %q", record[7])
	}
}

func TestExportCreatesDataDir(t *testing.T) {
	dir := t.TempDir() + "/nested/exports"
	exporter := NewCSVExporter(dir)

	_, err := exporter.ExportRawPosts("phivolcs", nil, time.Now())
	if err != nil {
		t.Fatalf("ExportRawPosts() error = %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected data dir to be created: %v", err)
	}
}
