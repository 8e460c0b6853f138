package cache

import (
	"testing"
	"time"
)

func TestMemoryGetSetInvalidate(t *testing.T) {
	c := NewMemory(time.Minute)

	if _, ok := c.Get("search/E1?page=1"); ok {
		t.Fatalf("hit on an empty cache")
	}

	c.Set("search/E1?page=1", []byte("a"))
	c.Set("search/E1?page=2", []byte("b"))
	c.Set("search/E2?page=1", []byte("c"))

	if v, ok := c.Get("search/E1?page=2"); !ok || string(v) != "b" {
		t.Fatalf("got %q %v", v, ok)
	}

	c.Invalidate("search/E1")
	if _, ok := c.Get("search/E1?page=1"); ok {
		t.Fatalf("prefix invalidation missed page 1")
	}
	if _, ok := c.Get("search/E1?page=2"); ok {
		t.Fatalf("prefix invalidation missed page 2")
	}
	if _, ok := c.Get("search/E2?page=1"); !ok {
		t.Fatalf("invalidation crossed the prefix boundary")
	}
}

func TestMemoryTTL(t *testing.T) {
	c := NewMemory(time.Minute)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"))
	now = base.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry expired early")
	}
	now = base.Add(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry served past its TTL")
	}
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	c := NewMemory(0)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base.Add(1000 * time.Hour) }
	c.Set("k", []byte("v"))
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("zero-TTL entry expired")
	}
}
