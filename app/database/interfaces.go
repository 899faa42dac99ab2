package database

import (
	"time"

	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/scrape"
)

type SourceRepository interface {
	GetSource(sourceName string) (*Source, error)
	GetSourceCount() (int, error)

	UpsertSource(sourceName, sourceURL string) (string, error)
	UpdateCrawlTimes(sourceName string, nextCrawl time.Time) error
}

type PostRepository interface {
	GetPosts(sourceName string, limit int) ([]Post, error)
	GetAllPosts(sourceName string) ([]Post, error)
	GetPostCount(sourceName string) (int, error)

	StorePost(sourceID string, post scrape.RawPost, scrapedAt time.Time) (string, bool, error)
}

type ReportForEnrichment struct {
	ID         string
	Identifier string
}

type ReportRepository interface {
	GetReports(sourceName string, limit int) ([]Report, error)
	GetReportCount(sourceName string) (int, error)
	GetReportStats(sourceName string) (total, enriched, pending int, err error)

	UpsertReport(postID string, fields extract.Fields) error

	GetReportsForEnrichment(sourceName string, limit int) ([]ReportForEnrichment, error)
	UpdateEnrichmentStatus(reportID string, status string, fetchedAt *time.Time, errorMsg string) error
	UpdateBulletinAndStatus(reportID string, bulletinText string, status string, fetchedAt *time.Time, errorMsg string) error
}
