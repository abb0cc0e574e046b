package mosaic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"gridview/app/graph"
	"gridview/app/m3"
)

func testUUID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func testAssociation(n int, moment uuid.UUID, width, height int) *graph.BoundingBoxAssociation {
	id := testUUID(n)
	return &graph.BoundingBoxAssociation{
		UUID:             id,
		ObservationUUID:  testUUID(n + 1000),
		ImagedMomentUUID: moment,
		Fields:           &graph.BoxFields{X: 10, Y: 20, Width: width, Height: height},
		Part:             "self",
		Observation: &graph.Observation{
			UUID:             testUUID(n + 1000),
			Concept:          "Grimpoteuthis",
			ImagedMomentUUID: moment,
		},
	}
}

type fakeRefs struct {
	mu    sync.Mutex
	calls int
	urls  map[uuid.UUID]string
}

func (f *fakeRefs) GetImageReference(ctx context.Context, id uuid.UUID) (*m3.ImageReference, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	url, ok := f.urls[id]
	if !ok {
		return nil, fmt.Errorf("no such image reference %s", id)
	}
	return &m3.ImageReference{UUID: id.String(), URL: url}, nil
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	catalog := newFakeCatalog()
	catalog.seqs["seq"] = testSequence()
	r := NewResolver(catalog, 1)
	if err := r.Resolve(context.Background(), []string{"seq"}, nil); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return r
}

func recordedAt(t *testing.T, s string) *time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", s, err)
	}
	return &ts
}

func intPtr(n int) *int { return &n }

func TestMaterializeVideoSourced(t *testing.T) {
	moment := testUUID(1)
	tables := graph.NewTables()
	tables.MomentVideoData[moment] = &graph.VideoData{
		VideoSequenceName:      "seq",
		IndexRecordedTimestamp: recordedAt(t, "2024-03-01T02:30:00Z"),
		VideoWidth:             intPtr(3840),
		VideoHeight:            intPtr(2160),
	}
	key := graph.GroupKey{ImagedMomentUUID: moment}
	tables.AssociationGroups[key] = []*graph.BoundingBoxAssociation{
		testAssociation(1, moment, 100, 50),
		testAssociation(2, moment, 30, 40),
	}

	m := NewMaterializer(testResolver(t), NewImageSource(nil, nil, nil), nil, 2)
	result, err := m.Materialize(context.Background(), tables, nil)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("Expected no failures, got %v", result.Failed)
	}
	if len(result.Arena) != 2 {
		t.Fatalf("Expected 2 units, got %d", len(result.Arena))
	}

	unit := result.Arena[testUUID(1)]
	if unit == nil {
		t.Fatal("Expected unit for association 1")
	}
	if unit.SourceURL != "http://media/later.mp4" {
		t.Errorf("Expected mp4 proxy URL, got %s", unit.SourceURL)
	}
	// 02:30 annotation against an 02:00 mp4 start
	if unit.ElapsedMillis == nil || *unit.ElapsedMillis != 30*60*1000 {
		t.Errorf("Unexpected elapsed millis: %v", unit.ElapsedMillis)
	}
	// 3840x2160 master over a 1920x1080 proxy
	if unit.ScaleX != 2.0 || unit.ScaleY != 2.0 {
		t.Errorf("Expected scale 2.0, got %f x %f", unit.ScaleX, unit.ScaleY)
	}
	if len(unit.Siblings) != 1 || unit.Siblings[0].UUID != testUUID(2) {
		t.Errorf("Expected the other group member as sibling, got %v", unit.Siblings)
	}

	left, top, right, bottom, err := unit.CropBounds()
	if err != nil {
		t.Fatalf("CropBounds failed: %v", err)
	}
	if left != 5 || top != 10 || right != 55 || bottom != 35 {
		t.Errorf("Unexpected crop bounds: %d %d %d %d", left, top, right, bottom)
	}
}

func TestMaterializeStillSourced(t *testing.T) {
	moment := testUUID(1)
	imageRef := testUUID(50)
	tables := graph.NewTables()
	tables.ImageReferenceURLs[imageRef] = "http://images/shot.png"
	key := graph.GroupKey{ImagedMomentUUID: moment, ImageReferenceUUID: imageRef}
	tables.AssociationGroups[key] = []*graph.BoundingBoxAssociation{
		testAssociation(1, moment, 100, 50),
	}

	m := NewMaterializer(testResolver(t), NewImageSource(nil, nil, nil), nil, 2)
	result, err := m.Materialize(context.Background(), tables, nil)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	unit := result.Arena[testUUID(1)]
	if unit == nil {
		t.Fatal("Expected unit for association 1")
	}
	if unit.SourceURL != "http://images/shot.png" {
		t.Errorf("Unexpected source URL: %s", unit.SourceURL)
	}
	if unit.ScaleX != 1.0 || unit.ScaleY != 1.0 {
		t.Errorf("Stills must use unit scale, got %f x %f", unit.ScaleX, unit.ScaleY)
	}
	if unit.VideoSourced() {
		t.Error("Still unit must not report video sourced")
	}
}

func TestMaterializeFetchesUnknownImageReference(t *testing.T) {
	moment := testUUID(1)
	imageRef := testUUID(50)
	tables := graph.NewTables()
	key := graph.GroupKey{ImagedMomentUUID: moment, ImageReferenceUUID: imageRef}
	tables.AssociationGroups[key] = []*graph.BoundingBoxAssociation{
		testAssociation(1, moment, 100, 50),
	}

	refs := &fakeRefs{urls: map[uuid.UUID]string{imageRef: "http://images/fetched.png"}}
	m := NewMaterializer(testResolver(t), NewImageSource(nil, nil, nil), refs, 2)
	result, err := m.Materialize(context.Background(), tables, nil)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	unit := result.Arena[testUUID(1)]
	if unit == nil || unit.SourceURL != "http://images/fetched.png" {
		t.Fatalf("Expected individually fetched URL, got %v", unit)
	}
	if refs.calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", refs.calls)
	}
	if tables.ImageReferenceURLs[imageRef] != "http://images/fetched.png" {
		t.Error("Fetched URL must be written back to the graph tables")
	}
}

func TestMaterializeSkipsUnresolvableGroups(t *testing.T) {
	momentNoVideo := testUUID(1)
	momentOutOfRange := testUUID(2)
	tables := graph.NewTables()
	// No video data at all
	tables.AssociationGroups[graph.GroupKey{ImagedMomentUUID: momentNoVideo}] = []*graph.BoundingBoxAssociation{
		testAssociation(1, momentNoVideo, 10, 10),
	}
	// Timestamp outside every video in the sequence
	tables.MomentVideoData[momentOutOfRange] = &graph.VideoData{
		VideoSequenceName:      "seq",
		IndexRecordedTimestamp: recordedAt(t, "2024-03-01T10:00:00Z"),
	}
	tables.AssociationGroups[graph.GroupKey{ImagedMomentUUID: momentOutOfRange}] = []*graph.BoundingBoxAssociation{
		testAssociation(2, momentOutOfRange, 10, 10),
	}

	m := NewMaterializer(testResolver(t), NewImageSource(nil, nil, nil), nil, 2)
	result, err := m.Materialize(context.Background(), tables, nil)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	// Unresolvable groups are skipped, not reported as per-unit failures
	if len(result.Arena) != 0 {
		t.Errorf("Expected no units, got %d", len(result.Arena))
	}
	if len(result.Failed) != 0 {
		t.Errorf("Expected no failed units, got %v", result.Failed)
	}
}

func TestMaterializePerUnitFailureIsolation(t *testing.T) {
	moment := testUUID(1)
	imageRef := testUUID(50)
	tables := graph.NewTables()
	tables.ImageReferenceURLs[imageRef] = "http://images/shot.png"
	key := graph.GroupKey{ImagedMomentUUID: moment, ImageReferenceUUID: imageRef}
	broken := testAssociation(2, moment, 0, 10) // zero width box
	tables.AssociationGroups[key] = []*graph.BoundingBoxAssociation{
		testAssociation(1, moment, 100, 50),
		broken,
		testAssociation(3, moment, 25, 25),
	}

	m := NewMaterializer(testResolver(t), NewImageSource(nil, nil, nil), nil, 2)
	result, err := m.Materialize(context.Background(), tables, nil)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(result.Arena) != 2 {
		t.Errorf("Expected 2 surviving units, got %d", len(result.Arena))
	}
	if len(result.Failed) != 1 || result.Failed[0] != broken.UUID {
		t.Errorf("Expected exactly the broken association in failed, got %v", result.Failed)
	}
}

func TestMaterializeCancelled(t *testing.T) {
	moment := testUUID(1)
	tables := graph.NewTables()
	tables.MomentVideoData[moment] = &graph.VideoData{
		VideoSequenceName:      "seq",
		IndexRecordedTimestamp: recordedAt(t, "2024-03-01T02:30:00Z"),
	}
	tables.AssociationGroups[graph.GroupKey{ImagedMomentUUID: moment}] = []*graph.BoundingBoxAssociation{
		testAssociation(1, moment, 10, 10),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMaterializer(testResolver(t), NewImageSource(nil, nil, nil), nil, 2)
	result, err := m.Materialize(ctx, tables, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if result != nil {
		t.Error("Cancelled batch must not return partial results")
	}
}
