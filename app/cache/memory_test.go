package cache

import (
	"bytes"
	"testing"
)

func TestMemoryStoreGet(t *testing.T) {
	m := NewMemory(1024)

	m.Store("a", []byte("hello"))
	got, ok := m.Get("a")
	if !ok || !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Expected hello, got %q (ok=%v)", got, ok)
	}
	if _, ok := m.Get("b"); ok {
		t.Error("Expected miss")
	}

	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
}

func TestMemoryEvictionOrder(t *testing.T) {
	// Budget fits two 400-byte entries
	m := NewMemory(1000)

	m.Store("a", make([]byte, 400))
	m.Store("b", make([]byte, 400))
	m.Get("a")
	m.Store("c", make([]byte, 400))

	if _, ok := m.Get("a"); !ok {
		t.Error("Recently used entry evicted")
	}
	if _, ok := m.Get("b"); ok {
		t.Error("LRU entry survived")
	}
}

func TestMemoryOversizedRejected(t *testing.T) {
	m := NewMemory(100)
	m.Store("big", make([]byte, 200))
	if _, ok := m.Get("big"); ok {
		t.Error("Oversized entry should be rejected")
	}
}

func TestMemoryUpdateMaxSize(t *testing.T) {
	m := NewMemory(10_000)
	m.Store("a", make([]byte, 400))
	m.Store("b", make([]byte, 400))
	m.UpdateMaxSize(500)
	if m.Stats().TotalSize > 500 {
		t.Errorf("Expected size under new limit, got %d", m.Stats().TotalSize)
	}
}

func TestMemoryClear(t *testing.T) {
	m := NewMemory(1024)
	m.Store("a", []byte("x"))
	m.Clear()
	if m.Stats().TotalEntries != 0 || m.Stats().TotalSize != 0 {
		t.Errorf("Expected empty cache, got %+v", m.Stats())
	}
}

func TestFingerprintKeys(t *testing.T) {
	a := ImageKey("http://example.org/1.png")
	b := ImageKey("http://example.org/2.png")
	if a == b {
		t.Error("Distinct URLs must produce distinct keys")
	}
	if a != ImageKey("http://example.org/1.png") {
		t.Error("Keys must be stable")
	}

	c1 := CropKey("http://example.org/v.mp4", 1, 2, 3, 4, 500)
	c2 := CropKey("http://example.org/v.mp4", 1, 2, 3, 4, 501)
	if c1 == c2 {
		t.Error("Different frame offsets must produce distinct keys")
	}
}
