package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GetEffectiveSettings returns the effective settings (defaults overlaid with file overrides if any).
// If anything goes wrong, it returns defaults.
func GetEffectiveSettings() Settings {
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings
	}
	if _, err := os.Stat(path); err != nil {
		// no file or other stat error -> return defaults
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings
	}
	overlay(&settings, m)
	return settings
}

// overlay applies on-disk overrides onto settings. Keys absent from the map
// keep their current values so defaults survive a sparse settings file.
func overlay(settings *Settings, m map[string]any) {
	if v, ok := m["raziel_url"]; ok {
		if vs, oks := v.(string); oks {
			settings.RazielURL = vs
		}
	}
	if v, ok := m["last_username"]; ok {
		if vs, oks := v.(string); oks {
			settings.LastUsername = vs
		}
	}
	if v, ok := m["cache_directory"]; ok {
		if vs, oks := v.(string); oks {
			settings.CacheDirectory = vs
		}
	}
	if v, ok := m["cache_size_limit_mb"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.CacheSizeLimitMB = vi
		}
	}
	if v, ok := m["worker_pool_size"]; ok {
		if vi, oki := v.(int); oki && vi >= 1 {
			settings.WorkerPoolSize = vi
		}
	}
	if v, ok := m["hide_verified"]; ok {
		if vb, okb := v.(bool); okb {
			settings.HideVerified = vb
		}
	}
	if v, ok := m["hide_unverified"]; ok {
		if vb, okb := v.(bool); okb {
			settings.HideUnverified = vb
		}
	}
	if v, ok := m["hide_training"]; ok {
		if vb, okb := v.(bool); okb {
			settings.HideTraining = vb
		}
	}
	if v, ok := m["hide_non_training"]; ok {
		if vb, okb := v.(bool); okb {
			settings.HideNonTraining = vb
		}
	}
	if v, ok := m["sort_methods"]; ok {
		if arr, oka := v.([]interface{}); oka {
			methods := make([]string, 0, len(arr))
			for _, e := range arr {
				if es, oks := e.(string); oks && es != "" {
					methods = append(methods, es)
				}
			}
			settings.SortMethods = methods
		}
	}
	if v, ok := m["display_timezone"]; ok {
		if vs, oks := v.(string); oks {
			settings.DisplayTimezone = vs
		}
	}
	if v, ok := m["timestamp_display_format"]; ok {
		if vs, oks := v.(string); oks {
			settings.TimestampDisplayFormat = vs
		}
	}
	if v, ok := m["window_width"]; ok {
		if vi, oki := v.(int); oki && vi >= 400 {
			settings.WindowWidth = vi
		}
	}
	if v, ok := m["window_height"]; ok {
		if vi, oki := v.(int); oki && vi >= 300 {
			settings.WindowHeight = vi
		}
	}
}

// EffectiveCacheDirectory resolves the image cache directory: the configured
// path if set, otherwise a "gridview" directory under the user cache dir.
func EffectiveCacheDirectory() (string, error) {
	s := GetEffectiveSettings()
	if s.CacheDirectory != "" {
		return s.CacheDirectory, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gridview"), nil
}

func settingsFilePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, "gridview.yml"), nil
}
