package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/source"
)

type EnrichReportsTask struct {
	Task
	Profile           *source.Profile
	httpClient        *http.Client
	bulletinExtractor *extract.BulletinExtractor
	reportRepo        database.ReportRepository
	userAgent         string
}

func NewEnrichReportsTask(sourceName string, profile *source.Profile, httpClient *http.Client,
	bulletinExtractor *extract.BulletinExtractor, reportRepo database.ReportRepository,
	userAgent string) *EnrichReportsTask {
	return &EnrichReportsTask{
		Task:              NewTask(TaskTypeEnrichReports, sourceName),
		Profile:           profile,
		httpClient:        httpClient,
		bulletinExtractor: bulletinExtractor,
		reportRepo:        reportRepo,
		userAgent:         userAgent,
	}
}

func (t *EnrichReportsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Profile.Settings.EnrichBulletins {
		slog.Debug("Bulletin enrichment disabled for source", "source", t.SourceName)
		return nil
	}

	reports, err := t.reportRepo.GetReportsForEnrichment(t.SourceName, t.Profile.Settings.TargetCount)
	if err != nil {
		return fmt.Errorf("failed to get reports for enrichment: %w", err)
	}

	if len(reports) == 0 {
		slog.Debug("No reports need bulletin enrichment", "source", t.SourceName)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, report := range reports {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		enrichCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Profile.Settings.Timeout)*time.Second)

		err := t.enrichReport(enrichCtx, report)
		cancel()

		if err != nil {
			slog.Error("Failed to enrich report", "report_id", report.ID, "identifier", report.Identifier, "error", err)
			errorCount++

			now := time.Now().UTC()
			err = t.reportRepo.UpdateEnrichmentStatus(report.ID, "failed", &now, err.Error())
			if err != nil {
				slog.Error("Failed to update enrichment status", "report_id", report.ID, "error", err)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *EnrichReportsTask) enrichReport(ctx context.Context, report database.ReportForEnrichment) error {
	bulletinURL, err := t.bulletinURL(report.Identifier)
	if err != nil {
		return fmt.Errorf("failed to resolve bulletin URL: %w", err)
	}

	data, err := t.fetchBulletin(ctx, bulletinURL)
	if err != nil {
		return fmt.Errorf("failed to fetch bulletin: %w", err)
	}

	text, err := t.bulletinExtractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract bulletin: %w", err)
	}

	now := time.Now().UTC()
	err = t.reportRepo.UpdateBulletinAndStatus(report.ID, text, "success", &now, "")
	if err != nil {
		return fmt.Errorf("failed to update bulletin and status: %w", err)
	}

	slog.Debug("Bulletin enriched successfully", "report_id", report.ID, "url", bulletinURL, "text_length", len(text))
	return nil
}

// bulletinURL resolves a permalink path captured during a crawl against the
// origin of the profile URL. Identifiers are usually root-relative paths.
func (t *EnrichReportsTask) bulletinURL(identifier string) (string, error) {
	if strings.HasPrefix(identifier, "http://") || strings.HasPrefix(identifier, "https://") {
		return identifier, nil
	}

	base, err := url.Parse(t.Profile.URL)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}

	ref, err := url.Parse(identifier)
	if err != nil {
		return "", fmt.Errorf("invalid identifier: %w", err)
	}

	return base.ResolveReference(ref).String(), nil
}

func (t *EnrichReportsTask) fetchBulletin(ctx context.Context, bulletinURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", bulletinURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
