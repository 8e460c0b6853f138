package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	c, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.sqlite"), time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLiteRoundTrip(t *testing.T) {
	c := openTestSQLite(t)

	if _, ok := c.Get("search/E1?page=1"); ok {
		t.Fatalf("hit on an empty cache")
	}
	c.Set("search/E1?page=1", []byte("a"))
	c.Set("search/E1?page=1", []byte("a2")) // upsert
	c.Set("search/E2?page=1", []byte("b"))

	if v, ok := c.Get("search/E1?page=1"); !ok || string(v) != "a2" {
		t.Fatalf("got %q %v", v, ok)
	}

	c.Invalidate("search/E1")
	if _, ok := c.Get("search/E1?page=1"); ok {
		t.Fatalf("invalidated key still served")
	}
	if _, ok := c.Get("search/E2?page=1"); !ok {
		t.Fatalf("invalidation crossed the prefix boundary")
	}
}

func TestSQLiteTTL(t *testing.T) {
	c := openTestSQLite(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"))
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("fresh entry missing")
	}
	now = base.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry served past its TTL")
	}
}

func TestSQLiteEscapesLikeMetachars(t *testing.T) {
	c := openTestSQLite(t)

	// A prefix containing LIKE metacharacters must only match literally.
	c.Set("search/E_1?q=100%", []byte("a"))
	c.Set("search/EX1?q=100x", []byte("b"))

	c.Invalidate("search/E_1")
	if _, ok := c.Get("search/E_1?q=100%"); ok {
		t.Fatalf("literal prefix not invalidated")
	}
	if _, ok := c.Get("search/EX1?q=100x"); !ok {
		t.Fatalf("underscore wildcard widened the invalidation")
	}
}
