package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mvalderrama/quakewatch/app/scrape"
)

type ConfigCache struct {
	sourcesDir string
	cache      map[string]*Profile
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Profile),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive profile name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		profileName := fileName[:len(fileName)-4]

		profile, err := cc.LoadProfile(profileName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source profile loaded", "source", profileName, "enabled", profile.Settings.Enabled, "crawl_interval", profile.Settings.CrawlInterval)
	}

	return nil
}

func (cc *ConfigCache) LoadProfile(profileName string) (*Profile, error) {
	profileFile := cc.getProfileFilePath(profileName)
	profile, err := cc.parseProfile(profileFile)
	if err != nil {
		return nil, err
	}

	profile.Name = profileName

	if err := cc.validateProfile(profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", profileFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[profile.Name] = profile

	return profile, nil
}

func (cc *ConfigCache) GetProfile(profileName string) (*Profile, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	profile, ok := cc.cache[profileName]
	if !ok {
		return nil, fmt.Errorf("source profile with name '%s' not found", profileName)
	}
	return profile, nil
}

func (cc *ConfigCache) GetProfiles() map[string]*Profile {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	profilesCopy := make(map[string]*Profile, len(cc.cache))
	for k, v := range cc.cache {
		profilesCopy[k] = v
	}
	return profilesCopy
}

func (cc *ConfigCache) GetEnabledProfiles() map[string]*Profile {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabled := make(map[string]*Profile)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabled[k] = v
		}
	}
	return enabled
}

func (cc *ConfigCache) GetProfileCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseProfile(profileFile string) (*Profile, error) {
	data, err := os.ReadFile(profileFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if profile.Settings.TargetCount == 0 {
		profile.Settings.TargetCount = scrape.DefaultTargetCount
	}
	if profile.Settings.ScrollPause == 0 {
		profile.Settings.ScrollPause = scrape.DefaultScrollPause.Seconds()
	}
	if profile.Settings.MaxScrollAttempts == 0 {
		profile.Settings.MaxScrollAttempts = scrape.DefaultMaxScrollAttempts
	}
	if profile.Settings.EmptyThreshold == 0 {
		profile.Settings.EmptyThreshold = scrape.DefaultEmptyThreshold
	}
	if profile.Settings.CrawlInterval == 0 {
		profile.Settings.CrawlInterval = 1800
	}
	if profile.Settings.Timeout == 0 {
		profile.Settings.Timeout = 30
	}
	if len(profile.Keywords) == 0 {
		profile.Keywords = scrape.DefaultKeywords
	}
	if profile.Settings.Session == "" {
		profile.Settings.Session = SessionBrowser
	}

	return &profile, nil
}

func (cc *ConfigCache) validateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}

	requiredFields := map[string]string{
		"source name": profile.Name,
		"source URL":  profile.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if len(profile.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}

	switch profile.Settings.Session {
	case "", SessionBrowser, SessionStatic:
	default:
		return fmt.Errorf("unknown session kind %q", profile.Settings.Session)
	}

	nonNegativeFields := map[string]int{
		"target count":        profile.Settings.TargetCount,
		"max scroll attempts": profile.Settings.MaxScrollAttempts,
		"empty threshold":     profile.Settings.EmptyThreshold,
		"crawl interval":      profile.Settings.CrawlInterval,
		"timeout":             profile.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if profile.Settings.ScrollPause < 0 {
		return fmt.Errorf("scroll pause must be non-negative")
	}

	return nil
}

func (cc *ConfigCache) getProfileFilePath(profileName string) string {
	return filepath.Join(cc.sourcesDir, profileName+".yml")
}
