package lru_test

import (
	"testing"
	"time"

	"github.com/spoke-d/dispatchd/internal/lru"
)

func TestCacheEviction(t *testing.T) {
	now := time.Now()
	cache := lru.New[string, int](2, 0)

	cache.Add("a", 1, now)
	cache.Add("b", 2, now)
	if _, ok := cache.Get("a", now); !ok {
		t.Fatal("expected a to be cached")
	}

	if expected, actual := true, cache.Add("c", 3, now); expected != actual {
		t.Errorf("expected: %t, actual: %t", expected, actual)
	}
	if _, ok := cache.Get("b", now); ok {
		t.Error("expected b to be evicted")
	}
	if value, ok := cache.Get("a", now); !ok || value != 1 {
		t.Errorf("expected: 1, actual: %d (%t)", value, ok)
	}
	if expected, actual := 2, cache.Len(); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}

func TestCacheUpdate(t *testing.T) {
	now := time.Now()
	cache := lru.New[string, int](2, 0)

	cache.Add("a", 1, now)
	if expected, actual := false, cache.Add("a", 2, now); expected != actual {
		t.Errorf("expected: %t, actual: %t", expected, actual)
	}
	if value, _ := cache.Get("a", now); value != 2 {
		t.Errorf("expected: 2, actual: %d", value)
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Now()
	cache := lru.New[string, int](4, time.Minute)

	cache.Add("a", 1, now)
	if _, ok := cache.Get("a", now.Add(59*time.Second)); !ok {
		t.Error("expected a to be cached")
	}
	if _, ok := cache.Get("a", now.Add(time.Minute)); ok {
		t.Error("expected a to be expired")
	}
	if expected, actual := 0, cache.Len(); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}

func TestCacheRemoveAndPurge(t *testing.T) {
	now := time.Now()
	cache := lru.New[int, string](4, 0)

	cache.Add(1, "a", now)
	cache.Add(2, "b", now)
	if expected, actual := true, cache.Remove(1); expected != actual {
		t.Errorf("expected: %t, actual: %t", expected, actual)
	}
	if expected, actual := false, cache.Remove(1); expected != actual {
		t.Errorf("expected: %t, actual: %t", expected, actual)
	}

	cache.Purge()
	if expected, actual := 0, cache.Len(); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}
