package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"
)

const trainingTag = "training"

// BoxFields is the decoded link_value payload of a bounding box association.
// The service stores arbitrary JSON here; the named fields are the ones this
// application reads and writes, Extra preserves everything else so that a
// round-trip through edit/push never drops remote data.
type BoxFields struct {
	X      int
	Y      int
	Width  int
	Height int
	// ImageReferenceUUID identifies the image the box was drawn on. It may
	// belong to a different imaged moment than the annotation's own.
	ImageReferenceUUID *uuid.UUID
	Verifier           string
	Generator          string
	Observer           string
	Tags               []string
	Confidence         *float64
	Extra              map[string]any
}

// ParseBoxFields decodes and validates a link_value JSON document.
func ParseBoxFields(linkValue string) (*BoxFields, error) {
	v, err := oj.ParseString(linkValue)
	if err != nil {
		return nil, fmt.Errorf("invalid link_value JSON: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("link_value is not a JSON object")
	}

	f := &BoxFields{Extra: make(map[string]any)}
	for _, key := range []string{"x", "y", "width", "height"} {
		raw, present := m[key]
		if !present {
			return nil, fmt.Errorf("link_value missing required key %q", key)
		}
		n, ok := asInt(raw)
		if !ok {
			return nil, fmt.Errorf("link_value key %q is not an integer", key)
		}
		switch key {
		case "x":
			f.X = n
		case "y":
			f.Y = n
		case "width":
			f.Width = n
		case "height":
			f.Height = n
		}
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("bounding box width and height must be positive")
	}
	if f.X < 0 || f.Y < 0 {
		return nil, fmt.Errorf("bounding box x and y must be non-negative")
	}

	for key, raw := range m {
		switch key {
		case "x", "y", "width", "height":
		case "image_reference_uuid":
			if s, ok := raw.(string); ok && s != "" {
				if id, err := uuid.Parse(s); err == nil {
					f.ImageReferenceUUID = &id
				} else {
					return nil, fmt.Errorf("link_value image_reference_uuid: %w", err)
				}
			}
		case "verifier":
			if s, ok := raw.(string); ok {
				f.Verifier = s
			}
		case "generator":
			if s, ok := raw.(string); ok {
				f.Generator = s
			}
		case "observer":
			if s, ok := raw.(string); ok {
				f.Observer = s
			}
		case "confidence":
			if c, ok := asFloat(raw); ok {
				f.Confidence = &c
			}
		case "tags":
			if arr, ok := raw.([]any); ok {
				for _, e := range arr {
					if s, ok := e.(string); ok {
						f.Tags = append(f.Tags, s)
					}
				}
			}
		default:
			f.Extra[key] = raw
		}
	}
	return f, nil
}

// Encode re-serializes the box fields to the service's link_value shape.
func (f *BoxFields) Encode() string {
	m := make(map[string]any, len(f.Extra)+8)
	for k, v := range f.Extra {
		m[k] = v
	}
	m["x"] = int64(f.X)
	m["y"] = int64(f.Y)
	m["width"] = int64(f.Width)
	m["height"] = int64(f.Height)
	if f.ImageReferenceUUID != nil {
		m["image_reference_uuid"] = f.ImageReferenceUUID.String()
	}
	if f.Verifier != "" {
		m["verifier"] = f.Verifier
	}
	if f.Generator != "" {
		m["generator"] = f.Generator
	}
	if f.Observer != "" {
		m["observer"] = f.Observer
	}
	if f.Confidence != nil {
		m["confidence"] = *f.Confidence
	}
	if len(f.Tags) > 0 {
		tags := make([]any, len(f.Tags))
		for i, t := range f.Tags {
			tags[i] = t
		}
		m["tags"] = tags
	}
	return oj.JSON(m, &oj.Options{Sort: true})
}

// BoundingBoxAssociation is the unit of annotation: one localized box tied
// to a parent observation. Dirty flags record which mutable fields have
// diverged from the service and gate what a push writes back.
type BoundingBoxAssociation struct {
	UUID             uuid.UUID
	ObservationUUID  uuid.UUID
	ImagedMomentUUID uuid.UUID

	Fields      *BoxFields
	Part        string // the association's to_concept; "self" means the whole observed concept
	Observation *Observation

	dirtyConcept bool
	dirtyPart    bool
	dirtyBox     bool

	Deleted bool
}

// Concept returns the parent observation's concept label.
func (a *BoundingBoxAssociation) Concept() string {
	if a.Observation == nil {
		return ""
	}
	return a.Observation.Concept
}

// TextLabel is the label rendered on the thumbnail.
func (a *BoundingBoxAssociation) TextLabel() string {
	if a.Part == "self" {
		return a.Concept()
	}
	return fmt.Sprintf("%s %s", a.Concept(), a.Part)
}

// Xf is the x-coordinate of the bottom-right corner.
func (a *BoundingBoxAssociation) Xf() int { return a.Fields.X + a.Fields.Width }

// Yf is the y-coordinate of the bottom-right corner.
func (a *BoundingBoxAssociation) Yf() int { return a.Fields.Y + a.Fields.Height }

// Box returns (x, y, xf, yf).
func (a *BoundingBoxAssociation) Box() (int, int, int, int) {
	return a.Fields.X, a.Fields.Y, a.Xf(), a.Yf()
}

// IsBoxValid reports whether the box has positive extent.
func (a *BoundingBoxAssociation) IsBoxValid() bool {
	return a.Xf() > a.Fields.X && a.Yf() > a.Fields.Y
}

// IsInBounds reports whether the box fits inside the given image frame.
func (a *BoundingBoxAssociation) IsInBounds(x, y, w, h int) bool {
	return a.Fields.X >= x && a.Fields.Y >= y && a.Xf() <= x+w && a.Yf() <= y+h
}

// Verified reports whether a verifier has signed off on the box.
func (a *BoundingBoxAssociation) Verified() bool {
	return a.Fields.Verifier != ""
}

// IsTraining reports whether the box carries the training tag.
func (a *BoundingBoxAssociation) IsTraining() bool {
	for _, t := range a.Fields.Tags {
		if t == trainingTag {
			return true
		}
	}
	return false
}

// SetConcept updates the concept and/or part. Empty strings leave the
// corresponding field untouched.
func (a *BoundingBoxAssociation) SetConcept(concept, part string) {
	if concept != "" && a.Observation != nil && concept != a.Observation.Concept {
		a.Observation.Concept = concept
		a.dirtyConcept = true
	}
	if part != "" && part != a.Part {
		a.Part = part
		a.dirtyPart = true
	}
}

// SetVerifiedConcept updates concept/part and records the verifier.
func (a *BoundingBoxAssociation) SetVerifiedConcept(concept, part, verifier string) {
	a.SetConcept(concept, part)
	if a.Fields.Verifier != verifier {
		a.Fields.Verifier = verifier
		a.dirtyBox = true
	}
}

// Unverify clears the verifier.
func (a *BoundingBoxAssociation) Unverify() {
	if a.Verified() {
		a.Fields.Verifier = ""
		a.dirtyBox = true
	}
}

// MarkForTraining adds the training tag.
func (a *BoundingBoxAssociation) MarkForTraining() {
	if !a.IsTraining() {
		a.Fields.Tags = append(a.Fields.Tags, trainingTag)
		a.dirtyBox = true
	}
}

// UnmarkForTraining removes the training tag.
func (a *BoundingBoxAssociation) UnmarkForTraining() {
	if !a.IsTraining() {
		return
	}
	tags := a.Fields.Tags[:0]
	for _, t := range a.Fields.Tags {
		if t != trainingTag {
			tags = append(tags, t)
		}
	}
	a.Fields.Tags = tags
	a.dirtyBox = true
}

// SetBox moves/resizes the box.
func (a *BoundingBoxAssociation) SetBox(x, y, width, height int) {
	if x == a.Fields.X && y == a.Fields.Y && width == a.Fields.Width && height == a.Fields.Height {
		return
	}
	a.Fields.X = x
	a.Fields.Y = y
	a.Fields.Width = width
	a.Fields.Height = height
	a.dirtyBox = true
}

// Dirty reports whether any field needs pushing to the service.
func (a *BoundingBoxAssociation) Dirty() bool {
	return a.dirtyConcept || a.dirtyPart || a.dirtyBox
}

// ChangePusher writes association edits back to the annotation service.
type ChangePusher interface {
	UpdateObservationConcept(ctx context.Context, observationUUID uuid.UUID, concept, observer string) error
	UpdateBoundingBoxPart(ctx context.Context, associationUUID uuid.UUID, part string) error
	UpdateBoundingBoxData(ctx context.Context, associationUUID uuid.UUID, linkValue string) error
}

// PushChanges writes dirty fields to the service and clears their flags.
// Deleted boxes are never pushed.
func (a *BoundingBoxAssociation) PushChanges(ctx context.Context, pusher ChangePusher, username string) error {
	if a.Deleted {
		return nil
	}

	doModifyBox := false

	if a.dirtyConcept {
		if err := pusher.UpdateObservationConcept(ctx, a.ObservationUUID, a.Concept(), username); err != nil {
			return fmt.Errorf("failed to update observation concept: %w", err)
		}
		a.dirtyConcept = false
		doModifyBox = true
	}

	if a.dirtyPart {
		if err := pusher.UpdateBoundingBoxPart(ctx, a.UUID, a.Part); err != nil {
			return fmt.Errorf("failed to update bounding box part: %w", err)
		}
		a.dirtyPart = false
		doModifyBox = true
	}

	if a.dirtyBox {
		a.dirtyBox = false
		doModifyBox = true
	}

	if doModifyBox {
		if err := pusher.UpdateBoundingBoxData(ctx, a.UUID, a.Fields.Encode()); err != nil {
			return fmt.Errorf("failed to update bounding box data: %w", err)
		}
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
