package graph

import (
	"log"
	"time"

	"github.com/google/uuid"

	"gridview/app/rows"
	"gridview/app/timestamps"
)

// VideoData is the per-imaged-moment slice of video columns, retained for
// moments whose row carried a video URI. It describes the master video the
// annotation was authored against, not the MP4 proxy used for cropping.
type VideoData struct {
	IndexElapsedTimeMillis *int64
	IndexTimecode          string
	IndexRecordedTimestamp *time.Time
	VideoStartTimestamp    *time.Time
	VideoURI               string
	VideoContainer         string
	VideoReferenceUUID     *uuid.UUID
	VideoSequenceName      string
	VideoWidth             *int
	VideoHeight            *int
}

// AnnotationTime computes the moment's observed time via the index fallback chain.
func (v *VideoData) AnnotationTime() (time.Time, bool) {
	return timestamps.AnnotationTime(
		v.VideoStartTimestamp,
		v.IndexRecordedTimestamp,
		v.IndexElapsedTimeMillis,
		v.IndexTimecode,
	)
}

// GroupKey buckets associations by the image they should be cropped from.
// ImageReferenceUUID is uuid.Nil for video-sourced groups.
//
// Localizations on the same image reference but different imaged moments land
// in separate groups. That is a known modeling compromise carried over from
// the service's data shape, kept as-is rather than merged.
type GroupKey struct {
	ImagedMomentUUID   uuid.UUID
	ImageReferenceUUID uuid.UUID
}

// HasImageReference reports whether the group crops from a still image.
func (k GroupKey) HasImageReference() bool {
	return k.ImageReferenceUUID != uuid.Nil
}

// Tables is the deduplicated object graph reconstructed from flat query rows.
type Tables struct {
	// ImageReferenceURLs maps image reference UUID -> image URL (first URL wins)
	ImageReferenceURLs map[uuid.UUID]string
	// Observations maps observation UUID -> observation (first occurrence wins)
	Observations map[uuid.UUID]*Observation
	// MomentAncillary maps imaged moment UUID -> sparse sensor data
	MomentAncillary map[uuid.UUID]rows.Ancillary
	// MomentVideoData maps imaged moment UUID -> video columns, only for
	// moments with a video URI
	MomentVideoData map[uuid.UUID]*VideoData
	// AssociationGroups buckets bounding box associations by crop source
	AssociationGroups map[GroupKey][]*BoundingBoxAssociation
}

// NewTables returns empty graph tables.
func NewTables() *Tables {
	return &Tables{
		ImageReferenceURLs: make(map[uuid.UUID]string),
		Observations:       make(map[uuid.UUID]*Observation),
		MomentAncillary:    make(map[uuid.UUID]rows.Ancillary),
		MomentVideoData:    make(map[uuid.UUID]*VideoData),
		AssociationGroups:  make(map[GroupKey][]*BoundingBoxAssociation),
	}
}

// Build reconstructs the object graph from parsed rows. The pass is purely
// additive and deduplicating: an already-placed entry is never mutated, and
// a bad row degrades to a logged skip.
func Build(parsed []*rows.Row) *Tables {
	t := NewTables()
	t.mapMetadata(parsed)
	t.extractAssociations(parsed)
	return t
}

// VideoSequenceNames returns the distinct sequence names the video-backed
// moments need resolved.
func (t *Tables) VideoSequenceNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, vd := range t.MomentVideoData {
		if vd.VideoSequenceName != "" && !seen[vd.VideoSequenceName] {
			seen[vd.VideoSequenceName] = true
			names = append(names, vd.VideoSequenceName)
		}
	}
	return names
}

// Associations returns every association across all groups.
func (t *Tables) Associations() []*BoundingBoxAssociation {
	var all []*BoundingBoxAssociation
	for _, group := range t.AssociationGroups {
		all = append(all, group...)
	}
	return all
}

func (t *Tables) mapMetadata(parsed []*rows.Row) {
	for _, row := range parsed {
		// Map image_reference_uuid -> image_url
		if row.ImageReferenceUUID != nil {
			if _, seen := t.ImageReferenceURLs[*row.ImageReferenceUUID]; !seen {
				t.ImageReferenceURLs[*row.ImageReferenceUUID] = row.ImageURL
			}
		}

		// Map observation_uuid -> observation
		if row.ObservationUUID != nil {
			if _, seen := t.Observations[*row.ObservationUUID]; !seen {
				if row.ImagedMomentUUID == nil {
					log.Printf("[GRAPH] Observation %s has no imaged moment, skipping", row.ObservationUUID)
				} else {
					t.Observations[*row.ObservationUUID] = &Observation{
						UUID:             *row.ObservationUUID,
						Concept:          row.Concept,
						Observer:         row.Observer,
						Group:            row.ObservationGroup,
						ImagedMomentUUID: *row.ImagedMomentUUID,
					}
				}
			}
		}

		if row.ImagedMomentUUID == nil {
			continue
		}

		// Map imaged_moment_uuid -> ancillary data (non-null fields only)
		if _, seen := t.MomentAncillary[*row.ImagedMomentUUID]; !seen && !row.Ancillary.IsEmpty() {
			t.MomentAncillary[*row.ImagedMomentUUID] = row.Ancillary
		}

		// Map imaged_moment_uuid -> video data
		if row.VideoURI != "" {
			if _, seen := t.MomentVideoData[*row.ImagedMomentUUID]; !seen {
				t.MomentVideoData[*row.ImagedMomentUUID] = &VideoData{
					IndexElapsedTimeMillis: row.IndexElapsedTimeMillis,
					IndexTimecode:          row.IndexTimecode,
					IndexRecordedTimestamp: row.IndexRecordedTimestamp,
					VideoStartTimestamp:    row.VideoStartTimestamp,
					VideoURI:               row.VideoURI,
					VideoContainer:         row.VideoContainer,
					VideoReferenceUUID:     row.VideoReferenceUUID,
					VideoSequenceName:      row.VideoSequenceName,
					VideoWidth:             row.VideoWidth,
					VideoHeight:            row.VideoHeight,
				}
			}
		}
	}
}

func (t *Tables) extractAssociations(parsed []*rows.Row) {
	seen := make(map[uuid.UUID]bool)
	for _, row := range parsed {
		// Only bounding box associations become localizations
		if row.LinkName != "bounding box" {
			continue
		}
		if row.AssociationUUID == nil || row.ImagedMomentUUID == nil || row.ObservationUUID == nil {
			log.Printf("[GRAPH] Bounding box row missing identifying UUIDs, skipping")
			continue
		}
		if seen[*row.AssociationUUID] {
			continue
		}
		seen[*row.AssociationUUID] = true

		// Rows without a video start timestamp or sequence name cannot be
		// time-resolved later
		if row.VideoStartTimestamp == nil {
			log.Printf("[GRAPH] Imaged moment %s has no video start timestamp, skipping", row.ImagedMomentUUID)
			continue
		}
		if row.VideoSequenceName == "" {
			log.Printf("[GRAPH] Imaged moment %s has no video sequence name, skipping", row.ImagedMomentUUID)
			continue
		}

		observation, ok := t.Observations[*row.ObservationUUID]
		if !ok {
			log.Printf("[GRAPH] Association %s references missing observation %s, skipping", row.AssociationUUID, row.ObservationUUID)
			continue
		}

		fields, err := ParseBoxFields(row.LinkValue)
		if err != nil {
			log.Printf("[GRAPH] Association %s: %v, skipping", row.AssociationUUID, err)
			continue
		}

		assoc := &BoundingBoxAssociation{
			UUID:             *row.AssociationUUID,
			ObservationUUID:  *row.ObservationUUID,
			ImagedMomentUUID: *row.ImagedMomentUUID,
			Fields:           fields,
			Part:             row.ToConcept,
			Observation:      observation,
		}
		if !assoc.IsBoxValid() {
			log.Printf("[GRAPH] Association %s has a degenerate box, skipping", row.AssociationUUID)
			continue
		}

		// The box's own image reference wins over the row join's: a box may
		// be tied to an image under a different imaged moment than its
		// annotation's.
		key := GroupKey{ImagedMomentUUID: *row.ImagedMomentUUID}
		if fields.ImageReferenceUUID != nil {
			key.ImageReferenceUUID = *fields.ImageReferenceUUID
		} else if row.ImageReferenceUUID != nil {
			key.ImageReferenceUUID = *row.ImageReferenceUUID
		}

		t.AssociationGroups[key] = append(t.AssociationGroups[key], assoc)
	}
}
