package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/source"
)

// ReextractReportsTask reruns field extraction over every stored post of a
// source. Useful after extraction pattern changes; raw post text is the
// durable record, reports are derived.
type ReextractReportsTask struct {
	Task
	Profile    *source.Profile
	extractor  *extract.Extractor
	postRepo   database.PostRepository
	reportRepo database.ReportRepository
}

func NewReextractReportsTask(sourceName string, profile *source.Profile, extractor *extract.Extractor,
	postRepo database.PostRepository, reportRepo database.ReportRepository) *ReextractReportsTask {
	return &ReextractReportsTask{
		Task:       NewTask(TaskTypeReextractReports, sourceName),
		Profile:    profile,
		extractor:  extractor,
		postRepo:   postRepo,
		reportRepo: reportRepo,
	}
}

func (t *ReextractReportsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	posts, err := t.postRepo.GetAllPosts(t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to get posts: %w", err)
	}

	updatedCount := 0
	discardedCount := 0
	errorCount := 0

	for _, post := range posts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fields := t.extractor.Run(post.Text)
		if fields.CoreEmpty() {
			discardedCount++
			continue
		}

		if err := t.reportRepo.UpsertReport(post.ID, fields); err != nil {
			slog.Error("Failed to upsert report", "post_id", post.ID, "error", err)
			errorCount++
		} else {
			updatedCount++
		}
	}

	slog.Info("Task completed",
		"type", "ReextractReports",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"success", updatedCount,
		"discarded", discardedCount,
		"errors", errorCount)

	return nil
}
