package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mvalderrama/quakewatch/app/cfg"
	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/mirror"
	"github.com/mvalderrama/quakewatch/app/sink"
	"github.com/mvalderrama/quakewatch/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	sourceRepo        database.SourceRepository
	postRepo          database.PostRepository
	reportRepo        database.ReportRepository
	configCache       *source.ConfigCache
	sessions          SessionFactory
	mirrorSource      *mirror.Source
	extractor         *extract.Extractor
	bulletinExtractor *extract.BulletinExtractor
	exporter          *sink.CSVExporter
	httpClient        *http.Client
	userAgent         string
	interval          time.Duration
	workerCount       int
	ctx               context.Context
	cancel            context.CancelFunc
	wg                sync.WaitGroup
	taskQueue         chan TaskInterface
}

func NewScheduler(configCache *source.ConfigCache, sourceRepo database.SourceRepository,
	postRepo database.PostRepository, reportRepo database.ReportRepository,
	sessions SessionFactory, mirrorSource *mirror.Source, extractor *extract.Extractor,
	bulletinExtractor *extract.BulletinExtractor, exporter *sink.CSVExporter,
	httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		sourceRepo:        sourceRepo,
		postRepo:          postRepo,
		reportRepo:        reportRepo,
		configCache:       configCache,
		sessions:          sessions,
		mirrorSource:      mirrorSource,
		extractor:         extractor,
		bulletinExtractor: bulletinExtractor,
		exporter:          exporter,
		httpClient:        httpClient,
		userAgent:         cfg.UserAgent,
		interval:          time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:       cfg.WorkerCount,
		ctx:               ctx,
		cancel:            cancel,
		taskQueue:         make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

// Stop cancels the scheduler context and waits for the workers, the ticker
// loop and any pending retry goroutines to exit. The queue is never closed;
// a late EnqueueTask simply fails with the context error.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	profiles := s.configCache.GetProfiles()
	if len(profiles) == 0 {
		slog.Debug("No source profiles found")
		return
	}

	slog.Debug("Processing source profiles", "count", len(profiles))

	for _, profile := range profiles {
		syncTask := NewSyncSourceConfigTask(profile.Name, profile, s.sourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceConfigTask", "source", profile.Name, "error", err)
			continue
		}

		if !profile.Settings.Enabled {
			slog.Debug("Source disabled, skipping CrawlSourceTask", "source", profile.Name)
			continue
		}

		crawlTask := s.NewCrawlTask(profile)
		if err := s.EnqueueTask(crawlTask); err != nil {
			slog.Warn("Failed to enqueue CrawlSourceTask", "source", profile.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	profiles := s.configCache.GetEnabledProfiles()
	if len(profiles) == 0 {
		slog.Debug("No enabled source profiles found")
		return
	}

	slog.Debug("Processing enabled source profiles for task scheduling", "count", len(profiles))

	for _, profile := range profiles {
		src, err := s.sourceRepo.GetSource(profile.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", profile.Name, "error", err)
			continue
		}
		if src == nil {
			slog.Warn("Source not found in database, skipping", "source", profile.Name)
			continue
		}

		now := time.Now().UTC()
		if src.NextCrawlAt != nil && src.NextCrawlAt.After(now) {
			slog.Debug("Source not due for crawl yet", "source", profile.Name, "next_crawl_at", src.NextCrawlAt)
		} else {
			crawlTask := s.NewCrawlTask(profile)
			if err := s.EnqueueTask(crawlTask); err != nil {
				slog.Warn("Failed to enqueue CrawlSourceTask", "source", profile.Name, "error", err)
			}
		}

		if profile.Settings.EnrichBulletins {
			enrichTask := NewEnrichReportsTask(profile.Name, profile, s.httpClient, s.bulletinExtractor, s.reportRepo, s.userAgent)
			if err := s.EnqueueTask(enrichTask); err != nil {
				slog.Warn("Failed to enqueue EnrichReportsTask", "source", profile.Name, "error", err)
			}
		}
	}
}

// NewCrawlTask builds a crawl task bound to the scheduler's dependencies.
// Exposed so the API can enqueue on-demand crawls.
func (s *Scheduler) NewCrawlTask(profile *source.Profile) TaskInterface {
	return NewCrawlSourceTask(profile.Name, profile, s.sessions, s.mirrorSource,
		s.extractor, s.sourceRepo, s.postRepo, s.reportRepo, s.exporter)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 30*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				timer := time.NewTimer(retryDelay)
				defer timer.Stop()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-timer.C:
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
