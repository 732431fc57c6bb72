package cache_test

import (
	"testing"
	"time"

	"github.com/learnstack/learnhub/internal/cache"
)

func TestCacheSetGet(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("k", "v")

	got, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected a hit for key k")
	}
	if got.(string) != "v" {
		t.Fatalf("got %v, want v", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected a miss for an unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := cache.New(10 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected the entry to expire")
	}
}

func TestCacheClear(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be gone after Clear")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be gone after Clear")
	}
}
