package coordinator

import (
	"testing"
	"time"
)

func TestGateCacheHit(t *testing.T) {
	cache := NewGateCache(300 * time.Second)

	cache.Record(7, true)
	subscribed, ok := cache.Check(7)
	if !ok {
		t.Fatal("expected a cache hit right after Record")
	}
	if !subscribed {
		t.Fatal("expected the recorded verdict to be true")
	}
}

func TestGateCacheMissForUnknownUser(t *testing.T) {
	cache := NewGateCache(300 * time.Second)
	if _, ok := cache.Check(42); ok {
		t.Fatal("expected a miss for a user with no verdict")
	}
}

func TestGateCacheExpiry(t *testing.T) {
	cache := NewGateCache(300 * time.Second)
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Record(7, true)

	current = current.Add(299 * time.Second)
	if _, ok := cache.Check(7); !ok {
		t.Fatal("verdict expired before the TTL")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Check(7); ok {
		t.Fatal("verdict still served after the TTL")
	}
}

func TestGateCacheOverwrite(t *testing.T) {
	cache := NewGateCache(300 * time.Second)

	cache.Record(7, false)
	cache.Record(7, true)

	subscribed, ok := cache.Check(7)
	if !ok || !subscribed {
		t.Fatal("Record must overwrite the previous verdict")
	}
}
