package mosaic

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/google/uuid"

	"gridview/app/graph"
	"gridview/app/m3"
	"gridview/app/rows"
)

// ImageReferenceFetcher fetches image reference records the query rows did
// not carry a URL for.
type ImageReferenceFetcher interface {
	GetImageReference(ctx context.Context, imageReferenceUUID uuid.UUID) (*m3.ImageReference, error)
}

// Materializer turns association groups into render units.
type Materializer struct {
	resolver *Resolver
	source   *ImageSource
	refs     ImageReferenceFetcher
	poolSize int

	// urlMu guards write-back of individually fetched image reference URLs
	urlMu sync.Mutex
}

// NewMaterializer creates a materializer sharing the resolver's sequence
// cache and the session's image source.
func NewMaterializer(resolver *Resolver, source *ImageSource, refs ImageReferenceFetcher, poolSize int) *Materializer {
	if poolSize < 1 {
		poolSize = DefaultPoolSize
	}
	return &Materializer{
		resolver: resolver,
		source:   source,
		refs:     refs,
		poolSize: poolSize,
	}
}

// Result is one completed materialization batch: the arena of render units
// keyed by association UUID, plus the associations that individually failed.
type Result struct {
	Arena  map[uuid.UUID]*RenderUnit
	Failed []uuid.UUID
}

// Materialize builds render units for every association group, one group per
// worker-pool task. A group whose source cannot be resolved is skipped and
// logged; a single association failing within a group lands in the failed
// list without aborting the batch. Cancellation abandons the whole batch
// with ErrCancelled and commits nothing.
func (m *Materializer) Materialize(ctx context.Context, tables *graph.Tables, progress ProgressFunc) (*Result, error) {
	keys := make([]graph.GroupKey, 0, len(tables.AssociationGroups))
	for key := range tables.AssociationGroups {
		keys = append(keys, key)
	}

	result := &Result{Arena: make(map[uuid.UUID]*RenderUnit)}
	var mu sync.Mutex
	var completed int

	err := forEachLimit(ctx, m.poolSize, len(keys), func(i int) {
		key := keys[i]
		group := tables.AssociationGroups[key]
		units, failed := m.materializeGroup(ctx, tables, key, group)

		mu.Lock()
		for _, unit := range units {
			result.Arena[unit.Association.UUID] = unit
		}
		result.Failed = append(result.Failed, failed...)
		completed++
		done := completed
		mu.Unlock()

		if progress != nil {
			progress(done, len(keys), fmt.Sprintf("Materialized %d of %d groups", done, len(keys)))
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// groupSource is the resolved crop source shared by every association in a
// group.
type groupSource struct {
	url           string
	scaleX        float64
	scaleY        float64
	elapsedMillis *int64
}

func (m *Materializer) materializeGroup(ctx context.Context, tables *graph.Tables, key graph.GroupKey, group []*graph.BoundingBoxAssociation) ([]*RenderUnit, []uuid.UUID) {
	src, err := m.resolveSource(ctx, tables, key)
	if err != nil {
		log.Printf("[MOSAIC] Skipping group %v: %v", key, err)
		return nil, nil
	}

	videoData := tables.MomentVideoData[key.ImagedMomentUUID]
	ancillary := tables.MomentAncillary[key.ImagedMomentUUID]

	var units []*RenderUnit
	var failed []uuid.UUID
	for _, assoc := range group {
		unit, err := m.buildUnit(assoc, group, src, videoData, ancillary)
		if err != nil {
			log.Printf("[MOSAIC] Failed to build render unit for association %s: %v", assoc.UUID, err)
			failed = append(failed, assoc.UUID)
			continue
		}
		units = append(units, unit)
	}
	return units, failed
}

func (m *Materializer) resolveSource(ctx context.Context, tables *graph.Tables, key graph.GroupKey) (*groupSource, error) {
	if key.HasImageReference() {
		url, err := m.imageURL(ctx, tables, key.ImageReferenceUUID)
		if err != nil {
			return nil, err
		}
		return &groupSource{url: url, scaleX: 1.0, scaleY: 1.0}, nil
	}

	videoData := tables.MomentVideoData[key.ImagedMomentUUID]
	if videoData == nil {
		return nil, fmt.Errorf("no video data for imaged moment %s", key.ImagedMomentUUID)
	}
	annotationTime, ok := videoData.AnnotationTime()
	if !ok {
		return nil, fmt.Errorf("cannot derive annotation time for imaged moment %s", key.ImagedMomentUUID)
	}
	mp4, ok := m.resolver.FindMP4VideoData(videoData.VideoSequenceName, annotationTime)
	if !ok {
		return nil, fmt.Errorf("no matching MP4 video for imaged moment %s in sequence %q", key.ImagedMomentUUID, videoData.VideoSequenceName)
	}

	elapsed := int64(math.Round(annotationTime.Sub(mp4.Start).Seconds() * 1000))

	// Annotations are authored against the master video; the crop runs on
	// the MP4 proxy, which may be a different resolution
	scaleX, scaleY := 1.0, 1.0
	if videoData.VideoWidth != nil && mp4.Reference.Width > 0 {
		scaleX = float64(*videoData.VideoWidth) / float64(mp4.Reference.Width)
	}
	if videoData.VideoHeight != nil && mp4.Reference.Height > 0 {
		scaleY = float64(*videoData.VideoHeight) / float64(mp4.Reference.Height)
	}

	return &groupSource{
		url:           mp4.Reference.URI,
		scaleX:        scaleX,
		scaleY:        scaleY,
		elapsedMillis: &elapsed,
	}, nil
}

// imageURL resolves an image reference's URL from the graph tables, falling
// back to an individual service fetch for references the query rows never
// carried a URL for. Fetched URLs are written back so siblings reuse them.
func (m *Materializer) imageURL(ctx context.Context, tables *graph.Tables, imageReferenceUUID uuid.UUID) (string, error) {
	m.urlMu.Lock()
	url := tables.ImageReferenceURLs[imageReferenceUUID]
	m.urlMu.Unlock()
	if url != "" {
		return url, nil
	}

	if m.refs == nil {
		return "", fmt.Errorf("no URL known for image reference %s", imageReferenceUUID)
	}
	ref, err := m.refs.GetImageReference(ctx, imageReferenceUUID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image reference %s: %w", imageReferenceUUID, err)
	}
	if ref.URL == "" {
		return "", fmt.Errorf("image reference %s has no URL", imageReferenceUUID)
	}

	m.urlMu.Lock()
	tables.ImageReferenceURLs[imageReferenceUUID] = ref.URL
	m.urlMu.Unlock()
	return ref.URL, nil
}

func (m *Materializer) buildUnit(assoc *graph.BoundingBoxAssociation, group []*graph.BoundingBoxAssociation, src *groupSource, videoData *graph.VideoData, ancillary rows.Ancillary) (*RenderUnit, error) {
	if src.scaleX == 0 || src.scaleY == 0 {
		return nil, fmt.Errorf("zero scale factor")
	}
	if !assoc.IsBoxValid() {
		return nil, fmt.Errorf("degenerate box")
	}

	siblings := make([]*graph.BoundingBoxAssociation, 0, len(group)-1)
	for _, other := range group {
		if other != assoc {
			siblings = append(siblings, other)
		}
	}

	unit := &RenderUnit{
		Association:   assoc,
		Siblings:      siblings,
		SourceURL:     src.url,
		Ancillary:     ancillary,
		VideoData:     videoData,
		ScaleX:        src.scaleX,
		ScaleY:        src.scaleY,
		ElapsedMillis: src.elapsedMillis,
		source:        m.source,
	}
	return unit, nil
}
