package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/prerender/internal/link"
	"github.com/nao1215/prerender/internal/render"
	"github.com/nao1215/prerender/internal/snapshot"
)

// Renderer produces the rendered HTML and same-origin links of a URL.
type Renderer interface {
	Render(ctx context.Context, url string) (*render.Result, error)
}

// SnapshotWriter persists rendered HTML for a URL.
type SnapshotWriter interface {
	Write(url, html string) (*snapshot.Snapshot, error)
}

// Crawler drives a breadth-first crawl from a seed URL.
type Crawler struct {
	renderer Renderer
	writer   SnapshotWriter
	logger   *slog.Logger

	// maxPages stops the run after this many pages; 0 means no limit.
	maxPages int

	// maxDepth stops link following beyond this depth; negative means no
	// limit, 0 means the seed only.
	maxDepth int

	filter pathFilter

	// continueOnError selects skip-and-log instead of abort on failure.
	continueOnError bool

	// onPage is called after each page is written.
	onPage func(PageResult)
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithMaxPages stops the run after n pages. 0 means no limit.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithMaxDepth limits how many links away from the seed the crawl goes.
// 0 crawls the seed only; a negative value means no limit.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithIgnorePatterns skips URLs whose path matches any of the glob patterns
// (e.g. "/admin/*", "*.pdf").
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.filter.ignore = patterns
	}
}

// WithFollowPatterns restricts the crawl to URLs whose path matches at least
// one of the glob patterns. The seed is always crawled.
func WithFollowPatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.filter.follow = patterns
	}
}

// WithContinueOnError makes the crawl skip pages that fail instead of
// aborting the whole run.
func WithContinueOnError(continueOnError bool) Option {
	return func(c *Crawler) {
		c.continueOnError = continueOnError
	}
}

// WithPageHook registers a callback invoked after each page is written.
func WithPageHook(fn func(PageResult)) Option {
	return func(c *Crawler) {
		c.onPage = fn
	}
}

// New creates a Crawler.
func New(renderer Renderer, writer SnapshotWriter, opts ...Option) *Crawler {
	c := &Crawler{
		renderer: renderer,
		writer:   writer,
		maxDepth: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run crawls from seed until the frontier is empty, the page limit is hit,
// ctx is cancelled, or (in abort mode) a page fails.
//
// The returned Result is never nil once the seed is valid; on error it holds
// everything done up to the failure. A seed that is not an absolute http(s)
// URL fails with link.ErrInvalidURL before anything is rendered.
func (c *Crawler) Run(ctx context.Context, seed string) (*Result, error) {
	start, err := link.ParseSeed(seed)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Seed:      start.String(),
		State:     StateIdle,
		StartedAt: time.Now(),
		Pages:     make([]PageResult, 0),
		Failures:  make([]Failure, 0),
	}

	frontier := NewFrontier()
	frontier.Push(result.Seed, 0)

	c.logger.Info("crawl started",
		"seed", result.Seed,
		"maxPages", c.maxPages,
		"maxDepth", c.maxDepth,
		"continueOnError", c.continueOnError,
	)

	result.State = StateDraining
	runErr := c.drain(ctx, frontier, result)

	result.Pending = frontier.Pending()
	result.Elapsed = time.Since(result.StartedAt)

	if runErr != nil {
		result.State = StateAborted
		c.logger.Error("crawl aborted",
			"seed", result.Seed,
			"pages", len(result.Pages),
			"pending", len(result.Pending),
			"error", runErr,
		)
		return result, runErr
	}

	result.State = StateDone
	c.logger.Info("crawl finished",
		"seed", result.Seed,
		"pages", len(result.Pages),
		"failures", len(result.Failures),
		"pending", len(result.Pending),
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}

// drain processes the frontier one URL at a time.
func (c *Crawler) drain(ctx context.Context, frontier *Frontier, result *Result) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.maxPages > 0 && len(result.Pages) >= c.maxPages {
			c.logger.Info("page limit reached", "limit", c.maxPages, "pending", frontier.Len())
			return nil
		}

		item, ok := frontier.Pop()
		if !ok {
			return nil
		}
		// Before rendering, so links back to this page are never queued.
		frontier.MarkVisited(item.URL)

		page, links, err := c.process(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failure := newFailure(item, err)
			result.Failures = append(result.Failures, failure)
			if !c.continueOnError {
				return fmt.Errorf("crawl aborted at %s: %w", item.URL, err)
			}
			c.logger.Warn("skipping page",
				"url", item.URL,
				"kind", failure.Kind,
				"error", err,
			)
			continue
		}

		page.Queued = c.enqueue(frontier, item, links)
		result.Pages = append(result.Pages, *page)

		c.logger.Debug("page processed",
			"url", page.URL,
			"depth", page.Depth,
			"path", page.Path,
			"queued", len(page.Queued),
			"pending", frontier.Len(),
		)

		if c.onPage != nil {
			c.onPage(*page)
		}
	}
}

// process renders one URL and writes its snapshot.
func (c *Crawler) process(ctx context.Context, item Item) (*PageResult, []string, error) {
	res, err := c.renderer.Render(ctx, item.URL)
	if err != nil {
		return nil, nil, err
	}

	snap, err := c.writer.Write(item.URL, res.HTML)
	if err != nil {
		return nil, nil, err
	}

	return &PageResult{
		URL:        item.URL,
		Depth:      item.Depth,
		Path:       snap.Path,
		Size:       snap.Size,
		Hash:       snap.Hash,
		RenderTime: res.RenderTime,
		Cached:     res.Cached,
		LinksFound: len(res.Links),
	}, res.Links, nil
}

// enqueue pushes the links of a processed page and returns the ones that
// were actually added.
func (c *Crawler) enqueue(frontier *Frontier, from Item, links []string) []string {
	queued := make([]string, 0)
	if c.maxDepth >= 0 && from.Depth >= c.maxDepth {
		return queued
	}

	for _, l := range links {
		if frontier.Visited(l) || !c.filter.allows(l) {
			continue
		}
		if frontier.Push(l, from.Depth+1) {
			queued = append(queued, l)
		}
	}
	return queued
}
