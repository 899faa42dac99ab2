package api

import (
	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/source"
	"github.com/mvalderrama/quakewatch/app/tasks"
)

type Handler struct {
	sourceRepo  database.SourceRepository
	postRepo    database.PostRepository
	reportRepo  database.ReportRepository
	configCache *source.ConfigCache
	extractor   *extract.Extractor
	scheduler   tasks.TaskSchedulerInterface
}
