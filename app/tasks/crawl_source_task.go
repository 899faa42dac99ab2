package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/mirror"
	"github.com/mvalderrama/quakewatch/app/scrape"
	"github.com/mvalderrama/quakewatch/app/sink"
	"github.com/mvalderrama/quakewatch/app/source"
)

type CrawlSourceTask struct {
	Task
	Profile      *source.Profile
	sessions     SessionFactory
	mirrorSource *mirror.Source
	extractor    *extract.Extractor
	sourceRepo   database.SourceRepository
	postRepo     database.PostRepository
	reportRepo   database.ReportRepository
	exporter     *sink.CSVExporter
}

func NewCrawlSourceTask(sourceName string, profile *source.Profile, sessions SessionFactory,
	mirrorSource *mirror.Source, extractor *extract.Extractor,
	sourceRepo database.SourceRepository, postRepo database.PostRepository,
	reportRepo database.ReportRepository, exporter *sink.CSVExporter) *CrawlSourceTask {
	return &CrawlSourceTask{
		Task:         NewTask(TaskTypeCrawlSource, sourceName),
		Profile:      profile,
		sessions:     sessions,
		mirrorSource: mirrorSource,
		extractor:    extractor,
		sourceRepo:   sourceRepo,
		postRepo:     postRepo,
		reportRepo:   reportRepo,
		exporter:     exporter,
	}
}

func (t *CrawlSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Profile.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	posts, err := t.crawl(ctx)
	if err != nil || len(posts) == 0 {
		if t.Profile.MirrorURL == "" {
			if err != nil {
				return fmt.Errorf("failed to crawl source: %w", err)
			}
			slog.Info("Crawl yielded no posts", "source", t.SourceName)
		} else {
			if err != nil {
				slog.Warn("Crawl failed, falling back to mirror", "source", t.SourceName, "error", err)
			} else {
				slog.Info("Crawl yielded no posts, falling back to mirror", "source", t.SourceName)
			}
			posts, err = t.mirrorSource.Run(ctx, t.Profile.MirrorURL, t.Profile.Keywords)
			if err != nil {
				return fmt.Errorf("failed to fetch mirror feed: %w", err)
			}
		}
	}

	sourceID, err := t.sourceRepo.UpsertSource(t.SourceName, t.Profile.URL)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	scrapedAt := time.Now().UTC()

	newCount := 0
	duplicateCount := 0
	discardedCount := 0

	for _, post := range posts {
		postID, inserted, err := t.postRepo.StorePost(sourceID, post, scrapedAt)
		if err != nil {
			return fmt.Errorf("failed to store post: %w", err)
		}
		if inserted {
			newCount++
		} else {
			duplicateCount++
		}

		fields := t.extractor.Run(post.Text)
		if fields.CoreEmpty() {
			discardedCount++
			continue
		}

		if err := t.reportRepo.UpsertReport(postID, fields); err != nil {
			return fmt.Errorf("failed to store report: %w", err)
		}
	}

	if t.Profile.Settings.ExportCSV && len(posts) > 0 {
		if err := t.export(posts, scrapedAt); err != nil {
			slog.Error("Failed to export crawl results", "source", t.SourceName, "error", err)
		}
	}

	nextCrawl := scrapedAt.Add(time.Duration(t.Profile.Settings.CrawlInterval) * time.Second)
	if err := t.sourceRepo.UpdateCrawlTimes(t.SourceName, nextCrawl); err != nil {
		return fmt.Errorf("failed to update crawl times: %w", err)
	}

	slog.Info("Task completed",
		"type", "CrawlSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"total", len(posts),
		"new", newCount,
		"duplicates", duplicateCount,
		"discarded", discardedCount)

	return nil
}

func (t *CrawlSourceTask) crawl(ctx context.Context) ([]scrape.RawPost, error) {
	session, err := t.sessions.NewSession(t.Profile.Settings.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	crawler := scrape.NewCrawler(t.Profile.CrawlOptions())
	return crawler.Run(ctx, session, t.Profile.URL)
}

func (t *CrawlSourceTask) export(posts []scrape.RawPost, scrapedAt time.Time) error {
	rawPath, err := t.exporter.ExportRawPosts(t.SourceName, posts, scrapedAt)
	if err != nil {
		return fmt.Errorf("failed to export raw posts: %w", err)
	}

	reports, err := t.reportRepo.GetReports(t.SourceName, len(posts))
	if err != nil {
		return fmt.Errorf("failed to load reports for export: %w", err)
	}

	reportPath, err := t.exporter.ExportReports(t.SourceName, reports, scrapedAt)
	if err != nil {
		return fmt.Errorf("failed to export reports: %w", err)
	}

	slog.Debug("Crawl results exported", "source", t.SourceName, "raw", rawPath, "reports", reportPath)
	return nil
}
