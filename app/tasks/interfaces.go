package tasks

import (
	"github.com/mvalderrama/quakewatch/app/scrape"
	"github.com/mvalderrama/quakewatch/app/source"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing.
// This interface provides task queue management, worker pool control, and
// monitoring capabilities.
// Example usage:
//
//	scheduler := NewScheduler(configCache, sourceRepo, postRepo, reportRepo, sessions, ...)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewCrawlSourceTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	NewCrawlTask(profile *source.Profile) TaskInterface
}

// SessionFactory opens a fresh session of the requested kind for each crawl
// ("browser" or "static", per the profile). Sessions are single-use; the
// crawler tears them down when a pass completes.
type SessionFactory interface {
	NewSession(kind string) (scrape.Session, error)
}
