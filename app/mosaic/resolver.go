package mosaic

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gridview/app/m3"
)

const mp4Container = "video/mp4"

// SequenceCatalog looks up video sequences by name.
type SequenceCatalog interface {
	GetVideoSequenceByName(ctx context.Context, name string) (*m3.VideoSequence, error)
}

// MP4VideoData pairs an MP4 video reference with its owning video and parsed
// start time. The reference is the proxy actually used for display and
// cropping; the owning video carries the timeline.
type MP4VideoData struct {
	Video     *m3.Video
	Reference *m3.VideoReference
	Start     time.Time
}

// Resolver caches video sequence lookups across populate operations. A name
// that failed to resolve is cached as nil so the batch does not retry it on
// every populate.
type Resolver struct {
	catalog  SequenceCatalog
	poolSize int

	mu        sync.Mutex
	sequences map[string]*m3.VideoSequence
}

// NewResolver creates a resolver backed by the given catalog.
func NewResolver(catalog SequenceCatalog, poolSize int) *Resolver {
	if poolSize < 1 {
		poolSize = DefaultPoolSize
	}
	return &Resolver{
		catalog:   catalog,
		poolSize:  poolSize,
		sequences: make(map[string]*m3.VideoSequence),
	}
}

// Resolve looks up every name not already cached, with one concurrent lookup
// per name across the worker pool. A failed lookup records nil and the batch
// continues. On cancellation nothing is committed to the cache and
// ErrCancelled is returned.
func (r *Resolver) Resolve(ctx context.Context, names []string, progress ProgressFunc) error {
	r.mu.Lock()
	var pending []string
	for _, name := range names {
		if _, seen := r.sequences[name]; !seen {
			pending = append(pending, name)
		}
	}
	r.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	results := make([]*m3.VideoSequence, len(pending))
	var completed atomic.Int64
	err := forEachLimit(ctx, r.poolSize, len(pending), func(i int) {
		seq, err := r.catalog.GetVideoSequenceByName(ctx, pending[i])
		if err != nil {
			log.Printf("[MOSAIC] Failed to resolve video sequence %q: %v", pending[i], err)
			seq = nil
		}
		results[i] = seq
		done := int(completed.Add(1))
		if progress != nil {
			progress(done, len(pending), fmt.Sprintf("Resolved %d of %d video sequences", done, len(pending)))
		}
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	for i, name := range pending {
		r.sequences[name] = results[i]
	}
	r.mu.Unlock()
	return nil
}

// Sequence returns the cached sequence for a name. The bool reports whether
// the name has been resolved at all; a true with a nil sequence means the
// lookup failed.
func (r *Resolver) Sequence(name string) (*m3.VideoSequence, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq, ok := r.sequences[name]
	return seq, ok
}

// ClearCache drops all cached sequences.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequences = make(map[string]*m3.VideoSequence)
}

// FindMP4VideoData finds the MP4 proxy reference covering a timestamp within
// a resolved sequence. Videos lacking a start timestamp or duration are
// skipped; the timestamp must fall in the closed range [start, start+duration];
// the first reference whose container is exactly "video/mp4" wins. A miss is
// a recoverable condition, not an error.
func (r *Resolver) FindMP4VideoData(sequenceName string, timestamp time.Time) (*MP4VideoData, bool) {
	seq, ok := r.Sequence(sequenceName)
	if !ok || seq == nil {
		return nil, false
	}

	for i := range seq.Videos {
		video := &seq.Videos[i]
		start, ok := video.Start()
		if !ok {
			continue
		}
		duration, ok := video.Duration()
		if !ok {
			continue
		}
		if timestamp.Before(start) || timestamp.After(start.Add(duration)) {
			continue
		}
		for j := range video.References {
			if video.References[j].Container == mp4Container {
				return &MP4VideoData{
					Video:     video,
					Reference: &video.References[j],
					Start:     start,
				}, true
			}
		}
	}
	return nil, false
}
