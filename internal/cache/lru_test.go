package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}

	// b is now least recently used
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Errorf("b should have been evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after overwrite = %d, want 10", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Errorf("a should be gone after Delete")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size() after Purge = %d", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("a", 1)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", 2)
	clock.t = clock.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Errorf("a should have expired")
	}
	if _, ok := c.Get("b"); !ok {
		t.Errorf("b should still be live")
	}

	clock.t = clock.t.Add(time.Minute)
	j := NewJanitor(c)
	if n := j.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}
