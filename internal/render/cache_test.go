package render

import (
	"sync"
	"testing"
)

// TestCache tests the render cache.
func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("miss on empty cache", func(t *testing.T) {
		t.Parallel()

		c := NewCache()
		if _, ok := c.Get("https://example.com/"); ok {
			t.Error("expected miss on empty cache")
		}
		if c.Len() != 0 {
			t.Errorf("expected length 0, got %d", c.Len())
		}
	})

	t.Run("put then get", func(t *testing.T) {
		t.Parallel()

		c := NewCache()
		c.Put("https://example.com/", Entry{HTML: "<html></html>", Links: []string{"https://example.com/a"}})

		got, ok := c.Get("https://example.com/")
		if !ok {
			t.Fatal("expected hit")
		}
		if got.HTML != "<html></html>" {
			t.Errorf("unexpected HTML %q", got.HTML)
		}
		if len(got.Links) != 1 || got.Links[0] != "https://example.com/a" {
			t.Errorf("unexpected links %v", got.Links)
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		t.Parallel()

		c := NewCache()
		c.Put("u", Entry{HTML: "old"})
		c.Put("u", Entry{HTML: "new"})

		got, _ := c.Get("u")
		if got.HTML != "new" {
			t.Errorf("expected overwritten HTML, got %q", got.HTML)
		}
		if c.Len() != 1 {
			t.Errorf("expected length 1, got %d", c.Len())
		}
	})

	t.Run("returned links do not alias stored links", func(t *testing.T) {
		t.Parallel()

		c := NewCache()
		links := []string{"a"}
		c.Put("u", Entry{Links: links})
		links[0] = "mutated"

		got, _ := c.Get("u")
		got.Links[0] = "also mutated"

		again, _ := c.Get("u")
		if again.Links[0] != "a" {
			t.Errorf("expected stored link to stay %q, got %q", "a", again.Links[0])
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()

		c := NewCache()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := string(rune('a' + i%26))
				c.Put(key, Entry{HTML: key})
				_, _ = c.Get(key)
			}()
		}
		wg.Wait()

		if c.Len() != 26 {
			t.Errorf("expected 26 entries, got %d", c.Len())
		}
	})
}
