package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/source"
)

type SyncSourceConfigTask struct {
	Task
	Profile    *source.Profile
	sourceRepo database.SourceRepository
}

func NewSyncSourceConfigTask(sourceName string, profile *source.Profile, sourceRepo database.SourceRepository) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:       NewTask(TaskTypeSyncSourceConfig, sourceName),
		Profile:    profile,
		sourceRepo: sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := t.sourceRepo.UpsertSource(t.Profile.Name, t.Profile.URL)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSourceConfig", "source", t.SourceName, "error", err)
		return fmt.Errorf("failed to sync source config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSourceConfig",
		"source", t.SourceName,
		"duration", t.GetDuration())

	return nil
}
