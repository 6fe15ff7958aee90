package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nao1215/prerender/internal/link"
)

// Result is the outcome of rendering one URL.
type Result struct {
	// URL is the rendered URL, as requested.
	URL string

	// HTML is the serialized post-render DOM.
	HTML string

	// Links are the normalized, deduplicated same-origin links on the page,
	// in the order they first appear.
	Links []string

	// RenderTime is the wall-clock cost of producing this result.
	// It is zero for cache hits.
	RenderTime time.Duration

	// Cached reports whether the result came from the Cache.
	Cached bool
}

// Client renders pages through an Engine and memoizes the results.
// It is safe for concurrent use; concurrent renders of the same URL share a
// single engine call.
type Client struct {
	engine Engine
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for render timing and rejected links.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCache makes the Client use an existing Cache, e.g. one shared with
// another Client.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a Client that renders through engine.
func NewClient(engine Engine, opts ...ClientOption) *Client {
	c := &Client{engine: engine}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Cache returns the Client's render cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Render returns the rendered HTML and same-origin links of rawURL.
//
// A cached URL is answered from the Cache with zero RenderTime and without
// touching the engine. Otherwise one fresh Tab is opened, navigated, read and
// closed, and the result is cached.
func (c *Client) Render(ctx context.Context, rawURL string) (*Result, error) {
	if entry, ok := c.cache.Get(rawURL); ok {
		c.logger.Debug("render cache hit", "url", rawURL)
		return &Result{URL: rawURL, HTML: entry.HTML, Links: entry.Links, Cached: true}, nil
	}

	v, err, _ := c.group.Do(rawURL, func() (any, error) {
		return c.render(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}

	// singleflight hands the same pointer to every waiter.
	shared := v.(*Result) //nolint:forcetypeassert // render only returns *Result
	res := *shared
	res.Links = slices.Clone(shared.Links)
	return &res, nil
}

// render performs an uncached render.
func (c *Client) render(ctx context.Context, rawURL string) (*Result, error) {
	base, err := url.Parse(rawURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: %s", link.ErrInvalidURL, rawURL)
	}

	start := time.Now()

	tab, err := c.engine.Open(ctx)
	if err != nil {
		return nil, wrapError(rawURL, "open", err)
	}
	defer func() {
		if err := tab.Close(); err != nil {
			c.logger.Warn("failed to close browsing context", "url", rawURL, "error", err)
		}
	}()

	if err := tab.Navigate(ctx, rawURL); err != nil {
		return nil, wrapError(rawURL, "navigate", err)
	}

	loc, err := tab.Location(ctx)
	if err != nil {
		return nil, wrapError(rawURL, "location", err)
	}
	doc, linkBase, err := resolveLocation(base, loc)
	if err != nil {
		return nil, &Error{URL: rawURL, Op: "location", Err: err}
	}
	if doc.String() != base.String() {
		c.logger.Debug("followed redirect", "url", rawURL, "document", doc.String())
	}

	raw, err := tab.Links(ctx)
	if err != nil {
		return nil, wrapError(rawURL, "links", err)
	}

	html, err := tab.HTML(ctx)
	if err != nil {
		return nil, wrapError(rawURL, "html", err)
	}

	links := c.normalizeLinks(doc, linkBase, raw)
	elapsed := time.Since(start)

	c.cache.Put(rawURL, Entry{HTML: html, Links: links})

	c.logger.Info("rendered page",
		"url", rawURL,
		"render_ms", elapsed.Milliseconds(),
		"links", len(links),
		"bytes", len(html),
	)

	return &Result{
		URL:        rawURL,
		HTML:       html,
		Links:      links,
		RenderTime: elapsed,
	}, nil
}

// resolveLocation checks that the loaded document stayed on the requested
// origin and returns the document URL and the URL its links resolve against.
func resolveLocation(requested *url.URL, loc Location) (doc, base *url.URL, err error) {
	doc = requested
	if loc.Document != "" {
		doc, err = url.Parse(loc.Document)
		if err != nil {
			return nil, nil, fmt.Errorf("unreadable document URL %q: %w", loc.Document, err)
		}
	}
	if !link.SameOrigin(requested, doc) {
		return nil, nil, fmt.Errorf("%w: landed on %s", ErrOffSite, doc.Redacted())
	}

	base = doc
	if loc.Base != "" && loc.Base != loc.Document {
		if u, err := url.Parse(loc.Base); err == nil && u.IsAbs() {
			base = u
		}
	}
	return doc, base, nil
}

// normalizeLinks resolves raw tokens against base, keeps those on page's
// origin, drops rejected ones and removes duplicates while keeping
// first-seen order.
func (c *Client) normalizeLinks(page, base *url.URL, raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	links := make([]string, 0, len(raw))
	rebased := base.String() != page.String()

	for _, token := range raw {
		if rebased {
			token = rebase(base, token)
		}
		abs, err := link.Normalize(page, token)
		if err != nil {
			c.logger.Debug("dropped link", "page", page.String(), "token", token, "reason", err)
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}

	return links
}

// rebase resolves token against a <base href> so that Normalize can check it
// against the page's own origin. Blank and unparsable tokens are left for
// Normalize to reject.
func rebase(base *url.URL, token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return token
	}
	ref, err := url.Parse(token)
	if err != nil {
		return token
	}
	return base.ResolveReference(ref).String()
}

// wrapError classifies an engine error. Context cancellation passes through
// untouched so callers can tell an aborted crawl from a broken page.
func wrapError(rawURL, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return err
	}
	return &Error{URL: rawURL, Op: op, Err: err}
}
