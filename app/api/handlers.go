package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/source"
	"github.com/mvalderrama/quakewatch/app/tasks"
)

const defaultListLimit = 50

func NewHandler(configCache *source.ConfigCache, sourceRepo database.SourceRepository,
	postRepo database.PostRepository, reportRepo database.ReportRepository,
	extractor *extract.Extractor, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		sourceRepo:  sourceRepo,
		postRepo:    postRepo,
		reportRepo:  reportRepo,
		configCache: configCache,
		extractor:   extractor,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_profiles"] = h.configCache.GetProfileCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	profiles := h.configCache.GetProfiles()

	sources := make([]map[string]interface{}, 0, len(profiles))

	for _, profile := range profiles {
		info := map[string]interface{}{
			"name":           profile.Name,
			"url":            profile.URL,
			"enabled":        profile.Settings.Enabled,
			"target_count":   profile.Settings.TargetCount,
			"crawl_interval": (time.Duration(profile.Settings.CrawlInterval) * time.Second).String(),
			"keywords":       len(profile.Keywords),
		}

		if src, err := h.sourceRepo.GetSource(profile.Name); err == nil && src != nil {
			info["last_crawled_at"] = src.LastCrawledAt
			info["next_crawl_at"] = src.NextCrawlAt
		}

		if postCount, err := h.postRepo.GetPostCount(profile.Name); err == nil {
			info["post_count"] = postCount
		}

		if total, enriched, pending, err := h.reportRepo.GetReportStats(profile.Name); err == nil {
			info["reports"] = map[string]interface{}{
				"total":    total,
				"enriched": enriched,
				"pending":  pending,
			}
		}

		sources = append(sources, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) GetReports(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetProfile(name); err != nil {
		slog.Error("Source profile not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source profile not found"})
		return
	}

	reports, err := h.reportRepo.GetReports(name, h.listLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_reports", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(reports))
	for _, report := range reports {
		out = append(out, map[string]interface{}{
			"date_time":       report.DateTime,
			"magnitude":       report.Magnitude,
			"depth":           report.Depth,
			"location":        report.Location,
			"intensity":       report.Intensity,
			"identifier":      report.Identifier,
			"posted_at":       report.PostedAt,
			"scraped_at":      report.ScrapedAt.Format(time.RFC3339),
			"bulletin_status": report.BulletinStatus,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"source":  name,
		"reports": out,
		"total":   len(out),
	})
}

func (h *Handler) GetPosts(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetProfile(name); err != nil {
		slog.Error("Source profile not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source profile not found"})
		return
	}

	posts, err := h.postRepo.GetPosts(name, h.listLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_posts", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(posts))
	for _, post := range posts {
		out = append(out, map[string]interface{}{
			"text":       post.Text,
			"posted_at":  post.PostedAt,
			"identifier": post.Identifier,
			"scraped_at": post.ScrapedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"source": name,
		"posts":  out,
		"total":  len(out),
	})
}

func (h *Handler) APICrawlSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	profile, err := h.configCache.GetProfile(name)
	if err != nil {
		slog.Error("Source profile not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source profile not found"})
		return
	}

	crawlTask := h.scheduler.NewCrawlTask(profile)
	if err := h.scheduler.EnqueueTask(crawlTask); err != nil {
		slog.Error("Error enqueueing crawl task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue crawl task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Crawl task enqueued successfully",
		"source":  name,
		"task": gin.H{
			"id":   crawlTask.GetID(),
			"type": crawlTask.GetType(),
		},
	})
}

func (h *Handler) APIReextractSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetProfile(name); err != nil {
		slog.Error("Source profile not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source profile not found"})
		return
	}

	// Reload from disk so changed extraction settings take effect
	profile, err := h.configCache.LoadProfile(name)
	if err != nil {
		slog.Error("Error reloading profile", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload profile",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSourceConfigTask(name, profile, h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	reextractTask := tasks.NewReextractReportsTask(name, profile, h.extractor, h.postRepo, h.reportRepo)
	if err := h.scheduler.EnqueueTask(reextractTask); err != nil {
		slog.Error("Error enqueueing reextract task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue reextract task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile reloaded and tasks enqueued successfully",
		"source":  name,
		"tasks": []gin.H{
			{
				"id":   syncTask.ID,
				"type": syncTask.Type,
			},
			{
				"id":   reextractTask.ID,
				"type": reextractTask.Type,
			},
		},
	})
}

func (h *Handler) listLimit(c *gin.Context) int {
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return defaultListLimit
}
