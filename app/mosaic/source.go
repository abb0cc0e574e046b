package mosaic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gridview/app/cache"
)

// Cropper requests a server-side crop from a source image or video frame.
type Cropper interface {
	Crop(ctx context.Context, sourceURL string, left, top, right, bottom int, ms *int64) ([]byte, error)
}

// ImageSource fetches image and crop bytes through the session caches. Reads
// go memory cache, disk cache, network; successful fetches are written
// through both caches. Cache write failures are absorbed by the cache layer,
// a fetch only fails when the network does.
type ImageSource struct {
	client  *http.Client
	cropper Cropper
	memory  *cache.Memory
	disk    *cache.Disk
}

// NewImageSource creates a caching image source. cropper may be nil when no
// crop service is available, in which case FetchCrop fails.
func NewImageSource(cropper Cropper, memory *cache.Memory, disk *cache.Disk) *ImageSource {
	return &ImageSource{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cropper: cropper,
		memory:  memory,
		disk:    disk,
	}
}

// FetchImage returns the raw bytes of an image URL.
func (s *ImageSource) FetchImage(ctx context.Context, url string) ([]byte, error) {
	key := cache.ImageKey(url)
	if data, ok := s.cached(key); ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch failed with status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	s.store(key, data)
	return data, nil
}

// FetchCrop returns the bytes of a crop of a source image or video frame,
// delegated to the crop service.
func (s *ImageSource) FetchCrop(ctx context.Context, url string, left, top, right, bottom int, ms *int64) ([]byte, error) {
	offset := int64(-1)
	if ms != nil {
		offset = *ms
	}
	key := cache.CropKey(url, left, top, right, bottom, offset)
	if data, ok := s.cached(key); ok {
		return data, nil
	}

	if s.cropper == nil {
		return nil, fmt.Errorf("no crop service available")
	}
	data, err := s.cropper.Crop(ctx, url, left, top, right, bottom, ms)
	if err != nil {
		return nil, fmt.Errorf("crop fetch failed: %w", err)
	}

	s.store(key, data)
	return data, nil
}

func (s *ImageSource) cached(key string) ([]byte, bool) {
	if s.memory != nil {
		if data, ok := s.memory.Get(key); ok {
			return data, true
		}
	}
	if s.disk != nil {
		if data, ok := s.disk.Get(key); ok {
			if s.memory != nil {
				s.memory.Store(key, data)
			}
			return data, true
		}
	}
	return nil, false
}

func (s *ImageSource) store(key string, data []byte) {
	if s.memory != nil {
		s.memory.Store(key, data)
	}
	if s.disk != nil {
		s.disk.Insert(key, data)
	}
}
