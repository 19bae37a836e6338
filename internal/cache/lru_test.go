package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache should miss")
	}

	c.Set("a", 1)
	if v, found := c.Get("a"); !found || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, found)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("overwrite failed, got %d", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestEviction(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Set("c", "3")

	if _, found := c.Get("b"); found {
		t.Error("least recently used entry should have been evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("recently used entry should survive")
	}
	if _, found := c.Get("c"); !found {
		t.Error("new entry should be present")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)

	time.Sleep(20 * time.Millisecond)
	if _, found := c.Get("a"); found {
		t.Error("expired entry should miss")
	}

	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
}

func TestDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("1/2024-03", 1)
	c.Set("1/2024-04", 2)
	c.Set("2/2024-03", 3)

	if n := c.DeletePrefix("1/"); n != 2 {
		t.Errorf("DeletePrefix = %d, want 2", n)
	}
	if _, found := c.Get("1/2024-03"); found {
		t.Error("prefixed entry should be gone")
	}
	if _, found := c.Get("2/2024-03"); !found {
		t.Error("other household entry should survive")
	}
}
