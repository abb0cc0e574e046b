package mosaic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gridview/app/m3"
)

type fakeCatalog struct {
	mu    sync.Mutex
	calls map[string]int
	seqs  map[string]*m3.VideoSequence
	fail  map[string]bool
	hook  func(name string)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		calls: make(map[string]int),
		seqs:  make(map[string]*m3.VideoSequence),
		fail:  make(map[string]bool),
	}
}

func (f *fakeCatalog) GetVideoSequenceByName(ctx context.Context, name string) (*m3.VideoSequence, error) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
	if f.hook != nil {
		f.hook(name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.fail[name] {
		return nil, errors.New("catalog unavailable")
	}
	seq, ok := f.seqs[name]
	if !ok {
		return nil, fmt.Errorf("no such sequence %q", name)
	}
	return seq, nil
}

func millisPtr(ms int64) *int64 { return &ms }

func testSequence() *m3.VideoSequence {
	return &m3.VideoSequence{
		Name: "Doc Ricketts 1234",
		Videos: []m3.Video{
			{
				Name:           "early webm-only",
				StartTimestamp: "2024-03-01T00:00:00Z",
				DurationMillis: millisPtr(60 * 60 * 1000),
				References: []m3.VideoReference{
					{Container: "video/webm", URI: "http://media/early.webm"},
				},
			},
			{
				Name:           "later with proxy",
				StartTimestamp: "2024-03-01T02:00:00Z",
				DurationMillis: millisPtr(60 * 60 * 1000),
				References: []m3.VideoReference{
					{Container: "video/quicktime", URI: "http://media/later.mov", Width: 3840, Height: 2160},
					{Container: "video/mp4", URI: "http://media/later.mp4", Width: 1920, Height: 1080},
				},
			},
			{
				Name:           "no duration",
				StartTimestamp: "2024-03-01T04:00:00Z",
				References: []m3.VideoReference{
					{Container: "video/mp4", URI: "http://media/broken.mp4"},
				},
			},
		},
	}
}

func TestResolve(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.seqs["a"] = testSequence()
	catalog.fail["b"] = true

	r := NewResolver(catalog, 2)
	if err := r.Resolve(context.Background(), []string{"a", "b"}, nil); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if seq, ok := r.Sequence("a"); !ok || seq == nil {
		t.Error("Expected sequence a to be resolved")
	}
	// Failed lookups cache nil so later populates do not retry them
	if seq, ok := r.Sequence("b"); !ok || seq != nil {
		t.Errorf("Expected failed lookup to cache nil, got ok=%v seq=%v", ok, seq)
	}

	if err := r.Resolve(context.Background(), []string{"a", "b"}, nil); err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}
	if catalog.calls["a"] != 1 || catalog.calls["b"] != 1 {
		t.Errorf("Expected 1 lookup per name, got a=%d b=%d", catalog.calls["a"], catalog.calls["b"])
	}
}

func TestResolveCancelled(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.seqs["a"] = testSequence()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(catalog, 2)
	err := r.Resolve(ctx, []string{"a"}, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if _, ok := r.Sequence("a"); ok {
		t.Error("Cancelled resolve must not commit partial state")
	}
}

func TestResolveCancelMidBatch(t *testing.T) {
	catalog := newFakeCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	catalog.hook = func(string) { cancel() }
	catalog.seqs["a"] = testSequence()
	catalog.seqs["b"] = testSequence()
	catalog.seqs["c"] = testSequence()

	r := NewResolver(catalog, 1)
	err := r.Resolve(ctx, []string{"a", "b", "c"}, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, ok := r.Sequence(name); ok {
			t.Errorf("Cancelled resolve must not commit %q", name)
		}
	}
}

func TestFindMP4VideoData(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.seqs["seq"] = testSequence()
	r := NewResolver(catalog, 1)
	if err := r.Resolve(context.Background(), []string{"seq"}, nil); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("bad test timestamp %q: %v", s, err)
		}
		return ts
	}

	tests := []struct {
		name      string
		timestamp time.Time
		wantURI   string
		wantFound bool
	}{
		{"inside second video picks its mp4", at("2024-03-01T02:30:00Z"), "http://media/later.mp4", true},
		{"start of range is inclusive", at("2024-03-01T02:00:00Z"), "http://media/later.mp4", true},
		{"end of range is inclusive", at("2024-03-01T03:00:00Z"), "http://media/later.mp4", true},
		{"inside first video but no mp4 rendition", at("2024-03-01T00:30:00Z"), "", false},
		{"outside all ranges", at("2024-03-01T05:00:00Z"), "", false},
		{"video without duration is skipped", at("2024-03-01T04:00:30Z"), "", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mp4, found := r.FindMP4VideoData("seq", test.timestamp)
			if found != test.wantFound {
				t.Fatalf("Expected found=%v, got %v", test.wantFound, found)
			}
			if !found {
				return
			}
			if mp4.Reference.URI != test.wantURI {
				t.Errorf("Expected %s, got %s", test.wantURI, mp4.Reference.URI)
			}
			if mp4.Reference.Container != "video/mp4" {
				t.Errorf("Expected mp4 container, got %s", mp4.Reference.Container)
			}
		})
	}
}

func TestFindMP4VideoDataUnresolvedSequence(t *testing.T) {
	r := NewResolver(newFakeCatalog(), 1)
	if _, found := r.FindMP4VideoData("never-resolved", time.Now()); found {
		t.Error("Expected no match for unresolved sequence")
	}
}
