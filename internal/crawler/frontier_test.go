package crawler

import (
	"slices"
	"testing"
)

func TestFrontier(t *testing.T) {
	t.Parallel()

	t.Run("pops in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push("https://example.com/", 0)
		f.Push("https://example.com/a", 1)
		f.Push("https://example.com/b", 1)

		var got []string
		for {
			item, ok := f.Pop()
			if !ok {
				break
			}
			got = append(got, item.URL)
		}
		want := []string{"https://example.com/", "https://example.com/a", "https://example.com/b"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("rejects a URL already queued", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if !f.Push("https://example.com/a", 1) {
			t.Fatal("first push should succeed")
		}
		if f.Push("https://example.com/a", 2) {
			t.Error("second push of a queued URL should be rejected")
		}
		if f.Len() != 1 {
			t.Errorf("expected 1 queued URL, got %d", f.Len())
		}
	})

	t.Run("visited URLs can never be pushed again", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push("https://example.com/", 0)
		item, _ := f.Pop()
		f.MarkVisited(item.URL)

		if f.Push("https://example.com/", 3) {
			t.Error("push of a visited URL should be rejected")
		}
		if !f.Visited("https://example.com/") {
			t.Error("expected URL to be visited")
		}
		if f.VisitedCount() != 1 {
			t.Errorf("expected 1 visited URL, got %d", f.VisitedCount())
		}
	})

	t.Run("pop on empty frontier", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if _, ok := f.Pop(); ok {
			t.Error("expected empty frontier")
		}
	})

	t.Run("keeps depth", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push("https://example.com/deep", 4)
		item, ok := f.Pop()
		if !ok || item.Depth != 4 {
			t.Errorf("expected depth 4, got %+v", item)
		}
	})

	t.Run("pending is a copy", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push("https://example.com/a", 1)
		f.Push("https://example.com/b", 1)

		pending := f.Pending()
		pending[0] = "mutated"

		item, _ := f.Pop()
		if item.URL != "https://example.com/a" {
			t.Errorf("frontier changed through Pending: %q", item.URL)
		}
	})
}
