package cache

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMemoryCacheMaxSize is the default in-memory cache size limit (100MB)
const DefaultMemoryCacheMaxSize = 100 * 1024 * 1024

// entry is one cached blob
type entry struct {
	data       []byte
	size       int64
	accessTime int64
	createTime time.Time
}

// MemoryStats contains cache statistics for the UI
type MemoryStats struct {
	TotalEntries int     `json:"total_entries"`
	TotalSize    int64   `json:"total_size"`
	MaxSize      int64   `json:"max_size"`
	UsagePercent float64 `json:"usage_percent"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
}

// Memory is a size-bounded LRU byte cache. It fronts the disk cache during a
// review session so repeated draws of the same thumbnail never touch disk.
type Memory struct {
	storage     map[string]*entry
	maxSize     int64
	currentSize int64
	lru         *LRUList
	mutex       sync.RWMutex

	// Performance counters
	hits   int64
	misses int64
}

// NewMemory creates an in-memory cache bounded to maxSize bytes.
func NewMemory(maxSize int64) *Memory {
	if maxSize <= 0 {
		maxSize = DefaultMemoryCacheMaxSize
	}
	return &Memory{
		storage: make(map[string]*entry),
		maxSize: maxSize,
		lru:     NewLRUList(),
	}
}

// Get retrieves a blob and marks it as recently used.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	e, exists := m.storage[key]
	if !exists {
		atomic.AddInt64(&m.misses, 1)
		return nil, false
	}

	e.accessTime = time.Now().Unix()
	m.lru.MoveToFront(key)
	atomic.AddInt64(&m.hits, 1)
	return e.data, true
}

// Store inserts a blob, evicting old entries to stay under the size limit.
func (m *Memory) Store(key string, data []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	size := int64(len(data)) + int64(len(key))

	// Reject entries larger than the whole cache
	if size > m.maxSize {
		log.Printf("[CACHE] Rejecting oversized entry: %d bytes > %d limit", size, m.maxSize)
		return
	}

	// Remove existing entry if it exists
	if existing, exists := m.storage[key]; exists {
		m.currentSize -= existing.size
		m.lru.Remove(key)
		delete(m.storage, key)
	}

	for m.currentSize+size > m.maxSize {
		oldest := m.lru.RemoveOldest()
		if oldest == "" {
			break
		}
		if victim, exists := m.storage[oldest]; exists {
			m.currentSize -= victim.size
			delete(m.storage, oldest)
		}
	}

	m.storage[key] = &entry{
		data:       data,
		size:       size,
		accessTime: time.Now().Unix(),
		createTime: time.Now(),
	}
	m.currentSize += size
	m.lru.AddToFront(key)
}

// Remove deletes a blob.
func (m *Memory) Remove(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if e, exists := m.storage[key]; exists {
		m.currentSize -= e.size
		m.lru.Remove(key)
		delete(m.storage, key)
	}
}

// Clear empties the cache.
func (m *Memory) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.storage = make(map[string]*entry)
	m.lru = NewLRUList()
	m.currentSize = 0
}

// UpdateMaxSize changes the size limit, evicting as needed.
func (m *Memory) UpdateMaxSize(newMaxSize int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if newMaxSize <= 0 {
		newMaxSize = DefaultMemoryCacheMaxSize
	}
	m.maxSize = newMaxSize

	for m.currentSize > m.maxSize {
		oldest := m.lru.RemoveOldest()
		if oldest == "" {
			break
		}
		if victim, exists := m.storage[oldest]; exists {
			m.currentSize -= victim.size
			delete(m.storage, oldest)
		}
	}
}

// Stats returns cache statistics.
func (m *Memory) Stats() MemoryStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	hits := atomic.LoadInt64(&m.hits)
	misses := atomic.LoadInt64(&m.misses)
	stats := MemoryStats{
		TotalEntries: len(m.storage),
		TotalSize:    m.currentSize,
		MaxSize:      m.maxSize,
		Hits:         hits,
		Misses:       misses,
	}
	if m.maxSize > 0 {
		stats.UsagePercent = float64(m.currentSize) / float64(m.maxSize) * 100
	}
	if hits+misses > 0 {
		stats.HitRate = float64(hits) / float64(hits+misses)
	}
	return stats
}
