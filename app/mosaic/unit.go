package mosaic

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"gridview/app/graph"
	"gridview/app/imagestats"
	"gridview/app/rows"
)

// ThumbnailSize is the square bounding box thumbnails are scaled to fit.
const ThumbnailSize = 240

// RenderUnit is one renderable thumbnail: a bounding box association plus
// everything needed to crop it out of its source. Units are held in an arena
// keyed by association UUID; the association itself carries no pointer back.
type RenderUnit struct {
	Association *graph.BoundingBoxAssociation
	// Siblings are the other associations cropped from the same source,
	// drawn as overlays on this unit's thumbnail.
	Siblings  []*graph.BoundingBoxAssociation
	SourceURL string
	Ancillary rows.Ancillary
	VideoData *graph.VideoData

	// Scale factors map annotation coordinates (authored against the master
	// video) onto the source actually fetched. Stills use 1.0.
	ScaleX float64
	ScaleY float64
	// ElapsedMillis is the frame offset into the MP4 proxy. Nil for stills.
	ElapsedMillis *int64

	Selected bool
	Deleted  bool

	source *ImageSource

	statsMu sync.Mutex
	stats   *imagestats.Stats
}

// VideoSourced reports whether the unit crops from a video frame rather than
// a still image.
func (u *RenderUnit) VideoSourced() bool {
	return u.ElapsedMillis != nil
}

// UUID returns the backing association's UUID.
func (u *RenderUnit) UUID() string {
	return u.Association.UUID.String()
}

// CropBounds returns the box corners mapped into source coordinates. Fails
// on zero scale factors rather than dividing by them.
func (u *RenderUnit) CropBounds() (left, top, right, bottom int, err error) {
	if u.ScaleX == 0 || u.ScaleY == 0 {
		return 0, 0, 0, 0, fmt.Errorf("zero scale factor for association %s", u.Association.UUID)
	}
	x, y, xf, yf := u.Association.Box()
	left = int(float64(x) / u.ScaleX)
	top = int(float64(y) / u.ScaleY)
	right = int(float64(xf) / u.ScaleX)
	bottom = int(float64(yf) / u.ScaleY)
	return left, top, right, bottom, nil
}

// FullImage fetches and decodes the unit's entire source image. Only valid
// for still-sourced units; video frames are only reachable as crops.
func (u *RenderUnit) FullImage(ctx context.Context) (image.Image, error) {
	if u.VideoSourced() {
		return nil, fmt.Errorf("association %s is video sourced, no full image available", u.Association.UUID)
	}
	data, err := u.source.FetchImage(ctx, u.SourceURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for association %s: %w", u.Association.UUID, err)
	}
	return img, nil
}

// CropImage fetches and decodes just the unit's bounding box region. Stills
// are cropped locally from the full image; video frames are cropped by the
// remote crop service at the unit's millisecond offset.
func (u *RenderUnit) CropImage(ctx context.Context) (image.Image, error) {
	left, top, right, bottom, err := u.CropBounds()
	if err != nil {
		return nil, err
	}

	if !u.VideoSourced() {
		full, err := u.FullImage(ctx)
		if err != nil {
			return nil, err
		}
		return cropLocal(full, left, top, right, bottom), nil
	}

	data, err := u.source.FetchCrop(ctx, u.SourceURL, left, top, right, bottom, u.ElapsedMillis)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode crop for association %s: %w", u.Association.UUID, err)
	}
	return img, nil
}

// Thumbnail returns the unit's crop scaled to fit the thumbnail box,
// preserving aspect ratio.
func (u *RenderUnit) Thumbnail(ctx context.Context) (image.Image, error) {
	crop, err := u.CropImage(ctx)
	if err != nil {
		return nil, err
	}
	return scaleToFit(crop, ThumbnailSize), nil
}

// Stats computes (once) the pixel statistics of the unit's crop.
func (u *RenderUnit) Stats(ctx context.Context) (*imagestats.Stats, error) {
	u.statsMu.Lock()
	defer u.statsMu.Unlock()
	if u.stats != nil {
		return u.stats, nil
	}

	crop, err := u.CropImage(ctx)
	if err != nil {
		return nil, err
	}
	stats := imagestats.Compute(crop)
	u.stats = &stats
	return u.stats, nil
}

// CachedStats returns previously computed statistics, or nil.
func (u *RenderUnit) CachedStats() *imagestats.Stats {
	u.statsMu.Lock()
	defer u.statsMu.Unlock()
	return u.stats
}

func cropLocal(img image.Image, left, top, right, bottom int) image.Image {
	bounds := img.Bounds()
	rect := image.Rect(left, top, right, bottom).Add(bounds.Min).Intersect(bounds)
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

func scaleToFit(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return img
	}

	scale := float64(size) / float64(w)
	if h > w {
		scale = float64(size) / float64(h)
	}
	if scale >= 1 {
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, bounds, draw.Src, nil)
	return out
}
