package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvalderrama/quakewatch/app/scrape"
)

func TestConfigCacheLoadValidProfile(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://x.com/phivolcs_dost"
mirror_url: "https://nitter.net/phivolcs_dost/rss"

keywords:
  - "EARTHQUAKE"
  - "LINDOL"

settings:
  enabled: true
  target_count: 25
  scroll_pause: 1.5
  max_scroll_attempts: 120
  empty_threshold: 8
  crawl_interval: 900
  enrich_bulletins: true
  export_csv: true
`

	err := os.WriteFile(filepath.Join(tempDir, "phivolcs.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetProfileCount() != 1 {
		t.Errorf("Expected 1 profile, got %d", configCache.GetProfileCount())
	}

	profile, err := configCache.GetProfile("phivolcs")
	if err != nil {
		t.Fatal(err)
	}

	if profile.Name != "phivolcs" {
		t.Errorf("Expected name 'phivolcs', got '%s'", profile.Name)
	}
	if profile.URL != "https://x.com/phivolcs_dost" {
		t.Errorf("Expected feed URL, got '%s'", profile.URL)
	}
	if profile.MirrorURL != "https://nitter.net/phivolcs_dost/rss" {
		t.Errorf("Expected mirror URL, got '%s'", profile.MirrorURL)
	}
	if len(profile.Keywords) != 2 {
		t.Errorf("Expected 2 keywords, got %d", len(profile.Keywords))
	}
	if profile.Settings.TargetCount != 25 {
		t.Errorf("Expected target count 25, got %d", profile.Settings.TargetCount)
	}
	if profile.Settings.EmptyThreshold != 8 {
		t.Errorf("Expected empty threshold 8, got %d", profile.Settings.EmptyThreshold)
	}
	if !profile.Settings.EnrichBulletins {
		t.Errorf("Expected bulletin enrichment to be enabled")
	}
}

func TestConfigCacheAppliesDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://x.com/phivolcs_dost"
settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "minimal.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	profile, err := configCache.GetProfile("minimal")
	if err != nil {
		t.Fatal(err)
	}

	if profile.Settings.TargetCount != scrape.DefaultTargetCount {
		t.Errorf("Expected default target count %d, got %d", scrape.DefaultTargetCount, profile.Settings.TargetCount)
	}
	if profile.Settings.MaxScrollAttempts != scrape.DefaultMaxScrollAttempts {
		t.Errorf("Expected default max scroll attempts %d, got %d", scrape.DefaultMaxScrollAttempts, profile.Settings.MaxScrollAttempts)
	}
	if profile.Settings.EmptyThreshold != scrape.DefaultEmptyThreshold {
		t.Errorf("Expected default empty threshold %d, got %d", scrape.DefaultEmptyThreshold, profile.Settings.EmptyThreshold)
	}
	if profile.Settings.CrawlInterval != 1800 {
		t.Errorf("Expected default crawl interval 1800, got %d", profile.Settings.CrawlInterval)
	}
	if len(profile.Keywords) != len(scrape.DefaultKeywords) {
		t.Errorf("Expected default keyword set, got %v", profile.Keywords)
	}
	if profile.Settings.Session != SessionBrowser {
		t.Errorf("Expected default session kind %q, got %q", SessionBrowser, profile.Settings.Session)
	}
}

func TestConfigCacheSessionKind(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://nitter.net/phivolcs_dost"
settings:
  enabled: true
  session: static
`

	err := os.WriteFile(filepath.Join(tempDir, "mirror.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	profile, err := configCache.GetProfile("mirror")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Settings.Session != SessionStatic {
		t.Errorf("Expected session kind %q, got %q", SessionStatic, profile.Settings.Session)
	}
}

func TestConfigCacheRejectsUnknownSessionKind(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://x.com/phivolcs_dost"
settings:
  enabled: true
  session: telnet
`

	err := os.WriteFile(filepath.Join(tempDir, "broken.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Errorf("Expected an error for unknown session kind")
	}
}

func TestConfigCacheRejectsMissingURL(t *testing.T) {
	tempDir := t.TempDir()

	content := `
settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "broken.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Errorf("Expected an error for profile without URL")
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache("/nonexistent/sources")
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected missing directory to be tolerated, got: %v", err)
	}
	if configCache.GetProfileCount() != 0 {
		t.Errorf("Expected no profiles, got %d", configCache.GetProfileCount())
	}
}

func TestProfileCrawlOptions(t *testing.T) {
	profile := &Profile{
		Keywords: []string{"EARTHQUAKE"},
		Settings: Settings{
			TargetCount:       10,
			ScrollPause:       2.5,
			MaxScrollAttempts: 50,
			EmptyThreshold:    5,
		},
	}

	opts := profile.CrawlOptions()

	if opts.TargetCount != 10 {
		t.Errorf("Expected target count 10, got %d", opts.TargetCount)
	}
	if opts.ScrollPause != 2500*time.Millisecond {
		t.Errorf("Expected scroll pause 2.5s, got %v", opts.ScrollPause)
	}
	if opts.MaxScrollAttempts != 50 {
		t.Errorf("Expected max scroll attempts 50, got %d", opts.MaxScrollAttempts)
	}
	if len(opts.Keywords) != 1 {
		t.Errorf("Expected 1 keyword, got %d", len(opts.Keywords))
	}
}
