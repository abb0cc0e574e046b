package settings

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SettingsService manages reading/writing settings from disk.
type SettingsService struct {
	ctx          context.Context
	cacheManager CacheManager
}

func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

// SetCacheManager allows the main function to inject the cache manager
func (s *SettingsService) SetCacheManager(cm CacheManager) {
	s.cacheManager = cm
}

// Startup receives the Wails context
func (s *SettingsService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// GetSettings returns the effective settings (defaults overlaid with file overrides if any).
func (s *SettingsService) GetSettings() (Settings, error) {
	return GetEffectiveSettings(), nil
}

// SaveSettings saves only the values that differ from defaults into YAML in the binary directory.
func (s *SettingsService) SaveSettings(in Settings) error {
	old := GetEffectiveSettings()
	cacheSizeChanged := old.CacheSizeLimitMB != in.CacheSizeLimitMB
	cacheDirChanged := old.CacheDirectory != in.CacheDirectory

	// Build a minimal map containing only non-default values to avoid zero-value serialization pitfalls
	data := make(map[string]any)
	if strings.TrimSpace(in.RazielURL) != defaultSettings.RazielURL {
		data["raziel_url"] = strings.TrimSpace(in.RazielURL)
	}
	// Preserve the last username (not visible in settings dialog, but must persist)
	lastUsername := strings.TrimSpace(in.LastUsername)
	if lastUsername == "" {
		lastUsername = strings.TrimSpace(old.LastUsername)
	}
	if lastUsername != "" {
		data["last_username"] = lastUsername
	}
	if strings.TrimSpace(in.CacheDirectory) != "" {
		data["cache_directory"] = strings.TrimSpace(in.CacheDirectory)
	}
	if in.CacheSizeLimitMB != defaultSettings.CacheSizeLimitMB && in.CacheSizeLimitMB > 0 {
		data["cache_size_limit_mb"] = in.CacheSizeLimitMB
	}
	if in.WorkerPoolSize != defaultSettings.WorkerPoolSize && in.WorkerPoolSize >= 1 {
		data["worker_pool_size"] = in.WorkerPoolSize
	}
	if in.HideVerified != defaultSettings.HideVerified {
		data["hide_verified"] = in.HideVerified
	}
	if in.HideUnverified != defaultSettings.HideUnverified {
		data["hide_unverified"] = in.HideUnverified
	}
	if in.HideTraining != defaultSettings.HideTraining {
		data["hide_training"] = in.HideTraining
	}
	if in.HideNonTraining != defaultSettings.HideNonTraining {
		data["hide_non_training"] = in.HideNonTraining
	}
	if len(in.SortMethods) > 0 {
		data["sort_methods"] = in.SortMethods
	}
	if strings.TrimSpace(in.DisplayTimezone) != strings.TrimSpace(defaultSettings.DisplayTimezone) {
		data["display_timezone"] = strings.TrimSpace(in.DisplayTimezone)
	}
	if strings.TrimSpace(in.TimestampDisplayFormat) != strings.TrimSpace(defaultSettings.TimestampDisplayFormat) {
		data["timestamp_display_format"] = strings.TrimSpace(in.TimestampDisplayFormat)
	}

	// Preserve window size (not visible in settings dialog, but must persist)
	windowWidth := in.WindowWidth
	if windowWidth == 0 {
		windowWidth = old.WindowWidth
	}
	if windowWidth != defaultSettings.WindowWidth && windowWidth >= 400 {
		data["window_width"] = windowWidth
	}
	windowHeight := in.WindowHeight
	if windowHeight == 0 {
		windowHeight = old.WindowHeight
	}
	if windowHeight != defaultSettings.WindowHeight && windowHeight >= 300 {
		data["window_height"] = windowHeight
	}

	path, err := settingsFilePath()
	if err != nil {
		return fmt.Errorf("failed to resolve settings path: %w", err)
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if s.cacheManager != nil {
		if cacheSizeChanged {
			log.Printf("[SETTINGS] Cache size limit changed %d -> %d MB", old.CacheSizeLimitMB, in.CacheSizeLimitMB)
			s.cacheManager.UpdateCacheSize()
		}
		if cacheDirChanged {
			log.Printf("[SETTINGS] Cache directory changed, clearing image cache")
			if err := s.cacheManager.ClearImageCache(); err != nil {
				log.Printf("[SETTINGS] Failed to clear image cache: %v", err)
			}
		}
	}
	return nil
}
