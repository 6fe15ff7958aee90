package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultNavigationTimeout bounds how long a Tab waits for network idle.
const DefaultNavigationTimeout = 30 * time.Second

// ChromeEngine renders pages in headless Chrome/Chromium through the
// DevTools protocol.
//
// Every Open launches a new browser process and closes it with the Tab.
// That is the expensive part of a crawl, and it is what keeps one page's
// state (cookies, storage, service workers) from leaking into the next.
type ChromeEngine struct {
	// execPath overrides the browser binary. Empty means chromedp's lookup
	// of well-known install locations.
	execPath string

	// timeout bounds navigation plus the network-idle wait.
	timeout time.Duration

	userAgent string
	proxy     string

	// headers are sent with every request the page makes.
	headers map[string]string

	logger *slog.Logger
}

// ChromeOption configures a ChromeEngine.
type ChromeOption func(*ChromeEngine)

// WithExecPath sets the Chrome/Chromium executable.
func WithExecPath(path string) ChromeOption {
	return func(e *ChromeEngine) {
		e.execPath = path
	}
}

// WithNavigationTimeout sets the per-page navigation timeout.
// Non-positive values are ignored.
func WithNavigationTimeout(d time.Duration) ChromeOption {
	return func(e *ChromeEngine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) ChromeOption {
	return func(e *ChromeEngine) {
		e.userAgent = ua
	}
}

// WithProxy routes browser traffic through proxy (e.g. "socks5://127.0.0.1:1080").
func WithProxy(proxy string) ChromeOption {
	return func(e *ChromeEngine) {
		e.proxy = proxy
	}
}

// WithHeaders adds extra request headers.
func WithHeaders(headers map[string]string) ChromeOption {
	return func(e *ChromeEngine) {
		e.headers = headers
	}
}

// WithChromeLogger sets the logger for browser lifecycle messages.
func WithChromeLogger(logger *slog.Logger) ChromeOption {
	return func(e *ChromeEngine) {
		e.logger = logger
	}
}

// NewChromeEngine creates a ChromeEngine.
func NewChromeEngine(opts ...ChromeOption) *ChromeEngine {
	e := &ChromeEngine{
		timeout: DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// allocatorOptions builds the browser launch flags.
func (e *ChromeEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("disable-gpu", true),
		// /dev/shm is tiny in most containers.
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.execPath != "" {
		opts = append(opts, chromedp.ExecPath(e.execPath))
	}
	if e.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.userAgent))
	}
	if e.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(e.proxy))
	}
	return opts
}

// Open launches a browser and opens one tab in it.
func (e *ChromeEngine) Open(ctx context.Context) (Tab, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		e.logger.Debug(fmt.Sprintf(format, args...))
	}))

	// The first Run starts the browser and attaches to the initial tab.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &chromeTab{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     e.timeout,
		headers:     e.headers,
	}, nil
}

// chromeTab is a Tab backed by a chromedp target.
type chromeTab struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	headers     map[string]string
}

// Navigate loads rawURL and waits for Chrome's networkIdle lifecycle event
// belonging to that navigation.
func (t *chromeTab) Navigate(ctx context.Context, rawURL string) error {
	navCtx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	// Lifecycle events from the blank initial page may still be in flight,
	// so idle events are matched against the navigation's loader.
	idle := make(chan cdp.LoaderID, 16)
	chromedp.ListenTarget(navCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == lifecycleNetworkIdle {
			select {
			case idle <- e.LoaderID:
			default:
			}
		}
	})

	var loaderID cdp.LoaderID
	err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(t.headers) == 0 {
				return nil
			}
			headers := make(network.Headers, len(t.headers))
			for k, v := range t.headers {
				headers[k] = v
			}
			if err := network.Enable().Do(ctx); err != nil {
				return err
			}
			return network.SetExtraHTTPHeaders(headers).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, id, errorText, err := page.Navigate(rawURL).Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" {
				return fmt.Errorf("navigation failed: %s", errorText)
			}
			loaderID = id
			return nil
		}),
	)
	if err != nil {
		return t.classify(ctx, navCtx, err)
	}

	for {
		select {
		case id := <-idle:
			if id == loaderID {
				return nil
			}
		case <-navCtx.Done():
			return t.classify(ctx, navCtx, navCtx.Err())
		}
	}
}

// classify maps a navigation error to ErrRenderTimeout when the navigation
// deadline, not the caller, ended it.
func (t *chromeTab) classify(parent, navCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrRenderTimeout, t.timeout)
	}
	return err
}

// Links evaluates the link extractor in the page.
func (t *chromeTab) Links(ctx context.Context) ([]string, error) {
	var links []string
	if err := t.run(ctx, chromedp.Evaluate(linkExtractorJS, &links)); err != nil {
		return nil, err
	}
	return links, nil
}

// HTML serializes the page DOM.
func (t *chromeTab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := t.run(ctx, chromedp.Evaluate(serializeDOMJS, &html)); err != nil {
		return "", err
	}
	return html, nil
}

// Location asks the page for its URL and base URL after any redirects.
func (t *chromeTab) Location(ctx context.Context) (Location, error) {
	var loc Location
	if err := t.run(ctx, chromedp.Evaluate(locationJS, &loc)); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// run executes actions on the tab, honoring ctx as well as the tab's own
// lifetime.
func (t *chromeTab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Close shuts the browser down gracefully, then releases the allocator.
func (t *chromeTab) Close() error {
	err := chromedp.Cancel(t.ctx)
	t.cancelTab()
	t.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
