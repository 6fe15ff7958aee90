package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/prerender/internal/link"
	"github.com/nao1215/prerender/internal/render"
	"github.com/nao1215/prerender/internal/snapshot"
)

// fakeRenderer serves canned links per URL. Links are returned as given, so
// tests pass them already normalized, like render.Client does.
type fakeRenderer struct {
	mu     sync.Mutex
	links  map[string][]string
	errs   map[string]error
	calls  []string
	onCall func(url string)
}

func (r *fakeRenderer) Render(_ context.Context, url string) (*render.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, url)
	onCall := r.onCall
	err := r.errs[url]
	links := r.links[url]
	r.mu.Unlock()

	if onCall != nil {
		onCall(url)
	}
	if err != nil {
		return nil, err
	}
	return &render.Result{
		URL:        url,
		HTML:       "<html>" + url + "</html>",
		Links:      links,
		RenderTime: time.Millisecond,
	}, nil
}

func (r *fakeRenderer) rendered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// fakeWriter records writes in memory.
type fakeWriter struct {
	mu      sync.Mutex
	written []string
	failOn  string
}

func (w *fakeWriter) Write(url, html string) (*snapshot.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if url == w.failOn {
		return nil, errors.New("disk full")
	}
	w.written = append(w.written, url)
	return &snapshot.Snapshot{URL: url, Path: "/snap" + url, Size: len(html)}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// siteGraph is a small site:
//
//	/ -> /a, /b
//	/a -> /, /c
//	/b -> /c, /d
//	/c -> /a
//	/d -> (none)
func siteGraph() map[string][]string {
	const base = "https://example.com"
	return map[string][]string{
		base + "/":  {base + "/a", base + "/b"},
		base + "/a": {base + "/", base + "/c"},
		base + "/b": {base + "/c", base + "/d"},
		base + "/c": {base + "/a"},
		base + "/d": {},
	}
}

func TestCrawler_Run(t *testing.T) {
	t.Parallel()

	t.Run("visits every page once in breadth-first order", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{links: siteGraph()}
		writer := &fakeWriter{}
		c := New(renderer, writer, WithLogger(discardLogger()))

		result, err := c.Run(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		want := []string{
			"https://example.com/",
			"https://example.com/a",
			"https://example.com/b",
			"https://example.com/c",
			"https://example.com/d",
		}
		if got := renderer.rendered(); !slices.Equal(got, want) {
			t.Errorf("expected render order %v, got %v", want, got)
		}
		if !slices.Equal(writer.written, want) {
			t.Errorf("expected writes %v, got %v", want, writer.written)
		}
		if result.State != StateDone {
			t.Errorf("expected state done, got %s", result.State)
		}
		if result.PagesWritten() != 5 {
			t.Errorf("expected 5 pages, got %d", result.PagesWritten())
		}
		if len(result.Pending) != 0 {
			t.Errorf("expected empty frontier, got pending %v", result.Pending)
		}
		if result.TotalRenderTime() != 5*time.Millisecond {
			t.Errorf("unexpected total render time %v", result.TotalRenderTime())
		}

		depths := map[string]int{}
		for _, p := range result.Pages {
			depths[p.URL] = p.Depth
		}
		if depths["https://example.com/c"] != 2 || depths["https://example.com/a"] != 1 {
			t.Errorf("unexpected depths %v", depths)
		}
	})

	t.Run("records which links each page queued", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{links: siteGraph()}
		c := New(renderer, &fakeWriter{}, WithLogger(discardLogger()))

		result, err := c.Run(context.Background(), "https://example.com/")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		queued := map[string][]string{}
		for _, p := range result.Pages {
			queued[p.URL] = p.Queued
		}
		// /a queues /c; /b sees /c already queued and only adds /d.
		if !slices.Equal(queued["https://example.com/a"], []string{"https://example.com/c"}) {
			t.Errorf("unexpected queue from /a: %v", queued["https://example.com/a"])
		}
		if !slices.Equal(queued["https://example.com/b"], []string{"https://example.com/d"}) {
			t.Errorf("unexpected queue from /b: %v", queued["https://example.com/b"])
		}
		if len(queued["https://example.com/c"]) != 0 {
			t.Errorf("/c should queue nothing, got %v", queued["https://example.com/c"])
		}
	})

	t.Run("invalid seed fails before rendering", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{}
		c := New(renderer, &fakeWriter{}, WithLogger(discardLogger()))

		result, err := c.Run(context.Background(), "ftp://example.com/")
		if !errors.Is(err, link.ErrInvalidURL) {
			t.Fatalf("expected ErrInvalidURL, got %v", err)
		}
		if result != nil {
			t.Error("expected nil result for an invalid seed")
		}
		if len(renderer.rendered()) != 0 {
			t.Error("nothing should be rendered")
		}
	})

	t.Run("render failure aborts by default", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{
			links: siteGraph(),
			errs: map[string]error{
				"https://example.com/b": &render.Error{URL: "https://example.com/b", Op: "navigate", Err: render.ErrRenderTimeout},
			},
		}
		writer := &fakeWriter{}
		c := New(renderer, writer, WithLogger(discardLogger()))

		result, err := c.Run(context.Background(), "https://example.com/")
		if !errors.Is(err, render.ErrRenderTimeout) {
			t.Fatalf("expected ErrRenderTimeout, got %v", err)
		}
		if result == nil {
			t.Fatal("expected a partial result")
		}
		if result.State != StateAborted {
			t.Errorf("expected state aborted, got %s", result.State)
		}
		if !slices.Equal(writer.written, []string{"https://example.com/", "https://example.com/a"}) {
			t.Errorf("unexpected writes %v", writer.written)
		}
		if len(result.Failures) != 1 || result.Failures[0].Kind != FailureTimeout {
			t.Errorf("expected one timeout failure, got %+v", result.Failures)
		}
		// /c was queued by /a and never processed.
		if !slices.Equal(result.Pending, []string{"https://example.com/c"}) {
			t.Errorf("expected /c left in the frontier, got %v", result.Pending)
		}
	})

	t.Run("write failure aborts by default", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{links: siteGraph()}
		writer := &fakeWriter{failOn: "https://example.com/a"}
		c := New(renderer, writer, WithLogger(discardLogger()))

		result, err := c.Run(context.Background(), "https://example.com/")
		if err == nil {
			t.Fatal("expected an error")
		}
		if result.Failures[0].Kind != FailureWrite {
			t.Errorf("expected write failure, got %q", result.Failures[0].Kind)
		}
	})

	t.Run("continue on error skips failed pages", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{
			links: siteGraph(),
			errs: map[string]error{
				"https://example.com/b": &render.Error{URL: "https://example.com/b", Op: "navigate", Err: errors.New("net::ERR_CONNECTION_REFUSED")},
			},
		}
		writer := &fakeWriter{}
		c := New(renderer, writer, WithLogger(discardLogger()), WithContinueOnError(true))

		result, err := c.Run(context.Background(), "https://example.com/")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if result.State != StateDone {
			t.Errorf("expected state done, got %s", result.State)
		}
		// /d is only reachable through /b.
		want := []string{"https://example.com/", "https://example.com/a", "https://example.com/c"}
		if !slices.Equal(writer.written, want) {
			t.Errorf("expected writes %v, got %v", want, writer.written)
		}
		if len(result.Failures) != 1 || result.Failures[0].Kind != FailureRender {
			t.Errorf("expected one render failure, got %+v", result.Failures)
		}
	})

	t.Run("max pages stops the run", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{links: siteGraph()}
		c := New(renderer, &fakeWriter{}, WithLogger(discardLogger()), WithMaxPages(2))

		result, err := c.Run(context.Background(), "https://example.com/")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if result.PagesWritten() != 2 {
			t.Errorf("expected 2 pages, got %d", result.PagesWritten())
		}
		if result.State != StateDone {
			t.Errorf("expected state done, got %s", result.State)
		}
		if len(result.Pending) == 0 {
			t.Error("expected URLs left in the frontier")
		}
	})

	t.Run("max depth limits link following", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			depth int
			want  int
		}{
			{depth: 0, want: 1},
			{depth: 1, want: 3},
			{depth: 2, want: 5},
			{depth: -1, want: 5},
		}
		for _, tt := range tests {
			renderer := &fakeRenderer{links: siteGraph()}
			c := New(renderer, &fakeWriter{}, WithLogger(discardLogger()), WithMaxDepth(tt.depth))

			result, err := c.Run(context.Background(), "https://example.com/")
			if err != nil {
				t.Fatalf("depth %d: run failed: %v", tt.depth, err)
			}
			if result.PagesWritten() != tt.want {
				t.Errorf("depth %d: expected %d pages, got %d", tt.depth, tt.want, result.PagesWritten())
			}
		}
	})

	t.Run("ignore patterns skip matching links", func(t *testing.T) {
		t.Parallel()

		renderer := &fakeRenderer{links: siteGraph()}
		writer := &fakeWriter{}
		c := New(renderer, writer, WithLogger(discardLogger()), WithIgnorePatterns([]string{"/b"}))

		if _, err := c.Run(context.Background(), "https://example.com/"); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		want := []string{"https://example.com/", "https://example.com/a", "https://example.com/c"}
		if !slices.Equal(writer.written, want) {
			t.Errorf("expected writes %v, got %v", want, writer.written)
		}
	})

	t.Run("page hook sees every page", func(t *testing.T) {
		t.Parallel()

		var seen []string
		renderer := &fakeRenderer{links: siteGraph()}
		c := New(renderer, &fakeWriter{},
			WithLogger(discardLogger()),
			WithPageHook(func(p PageResult) { seen = append(seen, p.URL) }),
		)

		if _, err := c.Run(context.Background(), "https://example.com/"); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if len(seen) != 5 {
			t.Errorf("expected 5 hook calls, got %d", len(seen))
		}
	})

	t.Run("cancellation aborts the run", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		renderer := &fakeRenderer{links: siteGraph()}
		renderer.onCall = func(url string) {
			if url == "https://example.com/a" {
				cancel()
			}
		}
		c := New(renderer, &fakeWriter{}, WithLogger(discardLogger()))

		result, err := c.Run(ctx, "https://example.com/")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.State != StateAborted {
			t.Errorf("expected state aborted, got %s", result.State)
		}
		// /a rendered before the cancellation was observed; /b never ran.
		if slices.Contains(renderer.rendered(), "https://example.com/b") {
			t.Error("no render should start after cancellation")
		}
	})
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateIdle:     "idle",
		StateDraining: "draining",
		StateDone:     "done",
		StateAborted:  "aborted",
		State(42):     "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}

// newSite serves the two-level site used by the end-to-end tests. The seed
// links to /a, b (relative), an external page and a fragment.
func newSite(t *testing.T, slow http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<!DOCTYPE html><html><body>
<a href="/a">A</a>
<a href="b">B</a>
<a href="https://other.com/c">C</a>
<a href="#frag">top</a>
</body></html>`)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>page a</p></body></html>`)
	})
	if slow != nil {
		mux.HandleFunc("/b", slow)
	} else {
		mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><p>page b</p></body></html>`)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawler_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	t.Run("renders the site into the snapshot root", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, nil)
		root := t.TempDir()

		engine, err := render.NewHTTPEngine(render.WithHTTPTimeout(5 * time.Second))
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}
		client := render.NewClient(engine, render.WithLogger(discardLogger()))
		c := New(client, snapshot.NewWriter(root), WithLogger(discardLogger()))

		result, err := c.Run(context.Background(), srv.URL+"/")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		wantQueued := []string{srv.URL + "/a", srv.URL + "/b"}
		if !slices.Equal(result.Pages[0].Queued, wantQueued) {
			t.Errorf("expected frontier %v after the seed, got %v", wantQueued, result.Pages[0].Queued)
		}

		for _, rel := range []string{"index.html", "a/index.html", "b/index.html"} {
			if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
				t.Errorf("expected %s: %v", rel, err)
			}
		}
		if result.PagesWritten() != 3 {
			t.Errorf("expected 3 pages, got %d", result.PagesWritten())
		}
	})

	t.Run("timeout on a page aborts and keeps earlier snapshots", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		root := t.TempDir()

		engine, err := render.NewHTTPEngine(render.WithHTTPTimeout(100 * time.Millisecond))
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}
		client := render.NewClient(engine, render.WithLogger(discardLogger()))
		c := New(client, snapshot.NewWriter(root), WithLogger(discardLogger()))

		result, err := c.Run(context.Background(), srv.URL+"/")
		if !errors.Is(err, render.ErrRenderTimeout) {
			t.Fatalf("expected ErrRenderTimeout, got %v", err)
		}
		if result.State != StateAborted {
			t.Errorf("expected state aborted, got %s", result.State)
		}
		if _, err := os.Stat(filepath.Join(root, "a", "index.html")); err != nil {
			t.Errorf("expected a/index.html to remain: %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "b", "index.html")); !os.IsNotExist(err) {
			t.Errorf("b/index.html should not exist, got %v", err)
		}
	})
}
