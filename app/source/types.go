package source

import (
	"time"

	"github.com/mvalderrama/quakewatch/app/scrape"
)

// Profile describes one monitored feed account, loaded from a YAML file in
// the sources directory. The file name (without .yml) becomes the profile
// name.
type Profile struct {
	Name      string   // Derived from filename (without .yml extension)
	URL       string   `yaml:"url"`
	MirrorURL string   `yaml:"mirror_url"`
	Keywords  []string `yaml:"keywords"`
	Settings  Settings `yaml:"settings"`
}

// Session kinds a profile may request for its crawls.
const (
	SessionBrowser = "browser" // full playwright browser, the default
	SessionStatic  = "static"  // plain HTTP fetch for server-rendered mirrors
)

type Settings struct {
	Enabled           bool    `yaml:"enabled"`
	Session           string  `yaml:"session"` // "browser" (default) or "static"
	TargetCount       int     `yaml:"target_count"`
	ScrollPause       float64 `yaml:"scroll_pause"` // seconds
	MaxScrollAttempts int     `yaml:"max_scroll_attempts"`
	EmptyThreshold    int     `yaml:"empty_threshold"`
	CrawlInterval     int     `yaml:"crawl_interval"` // seconds
	Timeout           int     `yaml:"timeout"`        // seconds, per outbound fetch
	EnrichBulletins   bool    `yaml:"enrich_bulletins"`
	ExportCSV         bool    `yaml:"export_csv"`
}

// CrawlOptions converts the profile tunables into crawl options; zero values
// fall through to the crawler defaults.
func (p *Profile) CrawlOptions() scrape.Options {
	return scrape.Options{
		TargetCount:       p.Settings.TargetCount,
		ScrollPause:       time.Duration(p.Settings.ScrollPause * float64(time.Second)),
		MaxScrollAttempts: p.Settings.MaxScrollAttempts,
		EmptyThreshold:    p.Settings.EmptyThreshold,
		Keywords:          p.Keywords,
	}
}
