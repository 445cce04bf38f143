package scraped

import (
	"testing"
	"time"
)

func TestResponseCacheTTLExpiry(t *testing.T) {
	cache := NewResponseCache(time.Minute)
	now := time.Unix(1000, 0)
	cache.now = func() time.Time { return now }

	cache.Set("categories", "payload")
	if v, ok := cache.Get("categories"); !ok || v != "payload" {
		t.Fatalf("fresh entry missing, got %v/%v", v, ok)
	}

	now = now.Add(59 * time.Second)
	if _, ok := cache.Get("categories"); !ok {
		t.Fatal("entry expired before ttl")
	}

	now = now.Add(2 * time.Second)
	if _, ok := cache.Get("categories"); ok {
		t.Fatal("entry survived past ttl")
	}
}

func TestResponseCacheInvalidate(t *testing.T) {
	cache := NewResponseCache(time.Minute)
	cache.Set("a", 1)
	cache.Set("b", 2)

	cache.Invalidate()
	if _, ok := cache.Get("a"); ok {
		t.Fatal("entry survived invalidation")
	}
	if _, ok := cache.Get("b"); ok {
		t.Fatal("entry survived invalidation")
	}
}
