package settings

// Settings holds application settings that can be overridden by the user.
type Settings struct {
	// RazielURL is the base URL of the M3 configuration/endpoint broker
	RazielURL string `yaml:"raziel_url" json:"raziel_url"`
	// LastUsername is pre-filled in the login dialog (not a credential)
	LastUsername string `yaml:"last_username,omitempty" json:"last_username,omitempty"`
	// CacheDirectory is where the image cache lives; empty means the platform default
	CacheDirectory string `yaml:"cache_directory,omitempty" json:"cache_directory,omitempty"`
	// CacheSizeLimitMB bounds the on-disk image cache
	CacheSizeLimitMB int `yaml:"cache_size_limit_mb" json:"cache_size_limit_mb"`
	// WorkerPoolSize bounds concurrent fetch/resolve work
	WorkerPoolSize int `yaml:"worker_pool_size" json:"worker_pool_size"`
	// Hide predicates applied to the mosaic at render time.
	// Remove omitempty so that false is serialized (we need to persist explicit overrides)
	HideVerified    bool `yaml:"hide_verified" json:"hide_verified"`
	HideUnverified  bool `yaml:"hide_unverified" json:"hide_unverified"`
	HideTraining    bool `yaml:"hide_training" json:"hide_training"`
	HideNonTraining bool `yaml:"hide_non_training" json:"hide_non_training"`
	// SortMethods is the ordered list of sort keys applied to the mosaic
	SortMethods []string `yaml:"sort_methods,omitempty" json:"sort_methods,omitempty"`
	// Timezone to use for displaying annotation times in the UI. "Local", "UTC", or an IANA name.
	DisplayTimezone string `yaml:"display_timezone" json:"display_timezone"`
	// Common time format string used to render timestamps in the UI and in exported data.
	// Example: "yyyy-MM-dd HH:mm:ss" (e.g., 2024-12-31 23:59:59)
	TimestampDisplayFormat string `yaml:"timestamp_display_format" json:"timestamp_display_format"`
	// Window size settings (not visible in settings dialog, but persisted)
	WindowWidth  int `yaml:"window_width,omitempty" json:"window_width,omitempty"`
	WindowHeight int `yaml:"window_height,omitempty" json:"window_height,omitempty"`
}

// CacheManager interface defines methods that SettingsService needs for cache management.
// This breaks the circular dependency between app and settings packages.
type CacheManager interface {
	ClearImageCache() error
	UpdateCacheSize()
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	RazielURL:        "",
	CacheSizeLimitMB: 1000,
	WorkerPoolSize:   10,
	HideVerified:     false,
	HideUnverified:   false,
	HideTraining:     false,
	HideNonTraining:  false,
	// By default, display in system local timezone
	DisplayTimezone: "Local",
	// Default display format for timestamps (common pattern, not Go layout)
	TimestampDisplayFormat: "yyyy-MM-dd HH:mm:ss",
	WindowWidth:            1280,
	WindowHeight:           800,
}
