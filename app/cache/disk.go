package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	manifestFileName = "manifest.json"
	dataDirName      = "data"
)

// manifestEntry records one cached blob: its file name under data/ and the
// last-access time in fractional unix seconds.
type manifestEntry struct {
	Name      string  `json:"name"`
	Timestamp float64 `json:"timestamp"`
}

// Disk is the persistent image cache: a data/ directory of opaquely-named
// blob files plus a manifest.json mapping key -> {name, timestamp}. Eviction
// removes the least-recently-accessed entries until the data directory fits
// the configured byte budget.
//
// The manifest is rewritten wholesale on every mutating operation and is not
// safe for concurrent multi-process use. Within the process a single mutex
// serializes the read-modify-write cycle.
type Disk struct {
	mutex         sync.Mutex
	dir           string
	capacityBytes int64
	manifest      map[string]manifestEntry
}

// NewDisk opens (or creates) the cache rooted at dir with the given capacity
// in MB. An unreadable manifest starts the cache empty rather than failing.
func NewDisk(dir string, capacityMB int) (*Disk, error) {
	if err := os.MkdirAll(filepath.Join(dir, dataDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	d := &Disk{
		dir:           dir,
		capacityBytes: int64(capacityMB) * 1_000_000,
		manifest:      make(map[string]manifestEntry),
	}

	manifestPath := filepath.Join(dir, manifestFileName)
	if b, err := os.ReadFile(manifestPath); err == nil {
		if err := json.Unmarshal(b, &d.manifest); err != nil {
			log.Printf("[CACHE] Corrupt manifest at %s, starting empty: %v", manifestPath, err)
			d.manifest = make(map[string]manifestEntry)
		}
	}
	return d, nil
}

// Insert writes data under key. A prior entry for the key is overwritten in
// the manifest; its backing file is left behind (a known minor leak, kept to
// match established cache layouts on disk).
func (d *Disk) Insert(key string, data []byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// Pick a fresh file name, retrying on the (vanishingly rare) collision
	var name, path string
	for {
		name = uuid.New().String()
		path = filepath.Join(d.dir, dataDirName, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		// Write failures degrade to an uncached fetch, never an error
		log.Printf("[CACHE] Failed to write %s: %v", path, err)
		return
	}

	d.manifest[key] = manifestEntry{
		Name:      name,
		Timestamp: nowSeconds(),
	}
	d.balance()
	d.saveManifest()
}

// Get returns the cached bytes for key, refreshing the entry's recency.
// A manifest hit whose backing file is gone reads as a miss.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	entry, ok := d.manifest[key]
	if !ok {
		return nil, false
	}

	entry.Timestamp = nowSeconds()
	d.manifest[key] = entry
	d.saveManifest()

	data, err := os.ReadFile(filepath.Join(d.dir, dataDirName, entry.Name))
	if err != nil {
		log.Printf("[CACHE] Manifest entry %s has no readable file: %v", key, err)
		return nil, false
	}
	return data, true
}

// Remove deletes the entry and its backing file.
func (d *Disk) Remove(key string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	entry, ok := d.manifest[key]
	if !ok {
		return
	}
	path := filepath.Join(d.dir, dataDirName, entry.Name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[CACHE] Failed to remove %s: %v", path, err)
	}
	delete(d.manifest, key)
	d.saveManifest()
}

// Clear deletes the entire data directory and resets the manifest.
func (d *Disk) Clear() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	dataDir := filepath.Join(d.dir, dataDirName)
	if err := os.RemoveAll(dataDir); err != nil {
		return fmt.Errorf("failed to clear cache data: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to recreate cache data dir: %w", err)
	}
	d.manifest = make(map[string]manifestEntry)
	d.saveManifest()
	return nil
}

// UpdateCapacityMB changes the byte budget and evicts down to it.
func (d *Disk) UpdateCapacityMB(capacityMB int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.capacityBytes = int64(capacityMB) * 1_000_000
	d.balance()
	d.saveManifest()
}

// Size returns the total on-disk size of the data directory in bytes.
func (d *Disk) Size() int64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.sizeLocked()
}

// EntryCount returns the number of manifest entries.
func (d *Disk) EntryCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.manifest)
}

func (d *Disk) sizeLocked() int64 {
	var total int64
	entries, err := os.ReadDir(filepath.Join(d.dir, dataDirName))
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}

// balance evicts least-recently-accessed entries until the data directory
// fits the byte budget.
func (d *Disk) balance() {
	for d.sizeLocked() > d.capacityBytes {
		lruKey := ""
		lruTimestamp := 0.0
		for key, entry := range d.manifest {
			if lruKey == "" || entry.Timestamp < lruTimestamp {
				lruKey = key
				lruTimestamp = entry.Timestamp
			}
		}
		if lruKey == "" {
			// Orphan files alone exceed the budget; nothing left to evict
			return
		}
		path := filepath.Join(d.dir, dataDirName, d.manifest[lruKey].Name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[CACHE] Failed to evict %s: %v", path, err)
		}
		delete(d.manifest, lruKey)
		log.Printf("[CACHE] Evicted %s", lruKey)
	}
}

func (d *Disk) saveManifest() {
	b, err := json.Marshal(d.manifest)
	if err != nil {
		log.Printf("[CACHE] Failed to marshal manifest: %v", err)
		return
	}
	path := filepath.Join(d.dir, manifestFileName)
	// Atomic rename so a crash mid-write cannot leave a torn manifest
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		log.Printf("[CACHE] Failed to write manifest: %v", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Printf("[CACHE] Failed to replace manifest: %v", err)
	}
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
