package mosaic

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gridview/app/imagestats"
)

// Sort method names, as stored in settings and shown in the sort menu.
const (
	SortByTimestamp         = "timestamp"
	SortByUUID              = "uuid"
	SortByObservationUUID   = "observation-uuid"
	SortByImageReference    = "image-reference-uuid"
	SortByLabel             = "label"
	SortByWidth             = "width"
	SortByHeight            = "height"
	SortByArea              = "area"
	SortByDepth             = "depth"
	SortByVerifier          = "verifier"
	SortByConfidence        = "confidence"
	SortByIntensityMean     = "intensity-mean"
	SortByIntensityVariance = "intensity-variance"
	SortByHueMean           = "hue-mean"
	SortByHueVariance       = "hue-variance"
	SortBySharpness         = "sharpness"
)

// compareFunc orders two render units: negative, zero, positive.
type compareFunc func(a, b *RenderUnit) int

var sortMethods = map[string]compareFunc{
	SortByTimestamp: func(a, b *RenderUnit) int {
		return annotationTime(a).Compare(annotationTime(b))
	},
	SortByUUID: func(a, b *RenderUnit) int {
		return strings.Compare(a.Association.UUID.String(), b.Association.UUID.String())
	},
	SortByObservationUUID: func(a, b *RenderUnit) int {
		return strings.Compare(a.Association.ObservationUUID.String(), b.Association.ObservationUUID.String())
	},
	SortByImageReference: func(a, b *RenderUnit) int {
		return strings.Compare(imageReferenceKey(a), imageReferenceKey(b))
	},
	SortByLabel: func(a, b *RenderUnit) int {
		return strings.Compare(a.Association.TextLabel(), b.Association.TextLabel())
	},
	SortByWidth: func(a, b *RenderUnit) int {
		return a.Association.Fields.Width - b.Association.Fields.Width
	},
	SortByHeight: func(a, b *RenderUnit) int {
		return a.Association.Fields.Height - b.Association.Fields.Height
	},
	SortByArea: func(a, b *RenderUnit) int {
		return a.Association.Fields.Width*a.Association.Fields.Height -
			b.Association.Fields.Width*b.Association.Fields.Height
	},
	SortByDepth: func(a, b *RenderUnit) int {
		return compareOptFloat(a.Ancillary.DepthMeters, b.Ancillary.DepthMeters)
	},
	SortByVerifier: func(a, b *RenderUnit) int {
		return strings.Compare(a.Association.Fields.Verifier, b.Association.Fields.Verifier)
	},
	SortByConfidence: func(a, b *RenderUnit) int {
		return compareOptFloat(a.Association.Fields.Confidence, b.Association.Fields.Confidence)
	},
	SortByIntensityMean: func(a, b *RenderUnit) int {
		return compareStats(a, b, func(s *imagestats.Stats) float64 { return s.IntensityMean })
	},
	SortByIntensityVariance: func(a, b *RenderUnit) int {
		return compareStats(a, b, func(s *imagestats.Stats) float64 { return s.IntensityVariance })
	},
	SortByHueMean: func(a, b *RenderUnit) int {
		return compareStats(a, b, func(s *imagestats.Stats) float64 { return s.HueMean })
	},
	SortByHueVariance: func(a, b *RenderUnit) int {
		return compareStats(a, b, func(s *imagestats.Stats) float64 { return s.HueVariance })
	},
	SortBySharpness: func(a, b *RenderUnit) int {
		return compareStats(a, b, func(s *imagestats.Stats) float64 { return s.Sharpness })
	},
}

// SortMethodNames lists every known sort method.
func SortMethodNames() []string {
	names := make([]string, 0, len(sortMethods))
	for name := range sortMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sort stably reorders the backing list by a lexicographic tuple of named
// methods. Order is all it changes; selection and visibility stay put.
func (x *Index) Sort(methods []string) error {
	compares := make([]compareFunc, 0, len(methods))
	for _, method := range methods {
		cmp, ok := sortMethods[method]
		if !ok {
			return fmt.Errorf("unknown sort method %q", method)
		}
		compares = append(compares, cmp)
	}
	if len(compares) == 0 {
		return nil
	}

	sort.SliceStable(x.units, func(i, j int) bool {
		for _, cmp := range compares {
			if c := cmp(x.units[i], x.units[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return nil
}

// imageReferenceKey groups units drawn on the same image together; units
// without an image reference sort last.
func imageReferenceKey(u *RenderUnit) string {
	if id := u.Association.Fields.ImageReferenceUUID; id != nil {
		return id.String()
	}
	return "\uffff"
}

func annotationTime(u *RenderUnit) time.Time {
	if u.VideoData != nil {
		if t, ok := u.VideoData.AnnotationTime(); ok {
			return t
		}
	}
	return time.Time{}
}

// compareOptFloat orders present values ascending, nils last.
func compareOptFloat(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// compareStats orders by a pixel statistic, units without computed stats
// last.
func compareStats(a, b *RenderUnit, key func(*imagestats.Stats) float64) int {
	sa := a.CachedStats()
	sb := b.CachedStats()
	switch {
	case sa == nil && sb == nil:
		return 0
	case sa == nil:
		return 1
	case sb == nil:
		return -1
	}
	va := key(sa)
	vb := key(sb)
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	}
	return 0
}
