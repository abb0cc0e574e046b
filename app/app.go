package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gridview/app/cache"
	"gridview/app/graph"
	"gridview/app/m3"
	"gridview/app/mosaic"
	"gridview/app/settings"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App is the Wails-bound application core. It owns the login session, the
// image caches, and the mosaic state built by the last populate.
type App struct {
	ctx context.Context

	sessionMu sync.RWMutex
	session   *m3.Session

	memCache  *cache.Memory
	diskCache *cache.Disk

	// mosaicMu guards everything the last query/populate produced
	mosaicMu     sync.Mutex
	header       []string
	records      [][]string
	tables       *graph.Tables
	resolver     *mosaic.Resolver
	materializer *mosaic.Materializer
	index        *mosaic.Index

	// populateMu serializes populate lifecycles; a new populate cancels the
	// previous one so stale batch results are never merged. populateGen
	// identifies which populate owns the registered cancel func.
	populateMu     sync.Mutex
	populateCancel context.CancelFunc
	populateGen    uint64

	// clipboard init
	clipOnce sync.Once
	clipOK   bool
}

// NewApp creates the application core with caches sized from settings.
func NewApp() *App {
	currentSettings := settings.GetEffectiveSettings()

	a := &App{
		memCache: cache.NewMemory(cache.DefaultMemoryCacheMaxSize),
	}

	dir, err := settings.EffectiveCacheDirectory()
	if err != nil {
		log.Printf("[APP] Failed to resolve cache directory: %v", err)
		return a
	}
	disk, err := cache.NewDisk(dir, currentSettings.CacheSizeLimitMB)
	if err != nil {
		log.Printf("[APP] Failed to open disk cache at %s: %v", dir, err)
		return a
	}
	a.diskCache = disk
	return a
}

// Startup receives the Wails context.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
}

// Ctx returns the Wails context for event emission from main.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// Shutdown saves dirty edits before the process exits.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.SaveChanges(); err != nil {
		log.Printf("[APP] Failed to save changes on shutdown: %v", err)
	}
}

// GetSavedWindowSize returns the persisted window dimensions.
func (a *App) GetSavedWindowSize() (int, int, error) {
	s := settings.GetEffectiveSettings()
	return s.WindowWidth, s.WindowHeight, nil
}

// Log emits a structured log event to the frontend console.
func (a *App) Log(level, message string) {
	if a == nil || a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, "log", map[string]any{
		"level":   level,
		"message": message,
	})
}

// currentSession returns the active session or an error when logged out.
func (a *App) currentSession() (*m3.Session, error) {
	a.sessionMu.RLock()
	defer a.sessionMu.RUnlock()
	if a.session == nil {
		return nil, fmt.Errorf("not logged in")
	}
	return a.session, nil
}

// imageSource builds the caching fetch layer for the current session.
func (a *App) imageSource(session *m3.Session) *mosaic.ImageSource {
	return mosaic.NewImageSource(session.Skimmer, a.memCache, a.diskCache)
}

// ClearImageCache wipes both the in-memory and on-disk image caches. Called
// by the settings service when the cache directory changes.
func (a *App) ClearImageCache() error {
	a.memCache.Clear()
	if a.diskCache == nil {
		return nil
	}
	if err := a.diskCache.Clear(); err != nil {
		return fmt.Errorf("failed to clear disk cache: %w", err)
	}
	return nil
}

// UpdateCacheSize re-reads the configured cache budget. Called by the
// settings service when the size limit changes; shrinking evicts immediately.
func (a *App) UpdateCacheSize() {
	if a.diskCache == nil {
		return
	}
	currentSettings := settings.GetEffectiveSettings()
	a.diskCache.UpdateCapacityMB(currentSettings.CacheSizeLimitMB)
}

// CacheStatsResponse contains cache statistics for the frontend.
type CacheStatsResponse struct {
	DiskSize    int64 `json:"diskSize"`
	DiskEntries int   `json:"diskEntries"`
	MemoryHits  int64 `json:"memoryHits"`
	MemoryMiss  int64 `json:"memoryMiss"`
}

// GetCacheStats returns the current cache statistics for the frontend.
func (a *App) GetCacheStats() CacheStatsResponse {
	resp := CacheStatsResponse{}
	if a.diskCache != nil {
		resp.DiskSize = a.diskCache.Size()
		resp.DiskEntries = a.diskCache.EntryCount()
	}
	stats := a.memCache.Stats()
	resp.MemoryHits = stats.Hits
	resp.MemoryMiss = stats.Misses
	return resp
}
