package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/prerender/internal/link"
)

// DefaultMaxBodySize caps how much of a response HTTPEngine reads.
const DefaultMaxBodySize = 10 * 1024 * 1024

// HTTPEngine is an Engine that fetches pages with a plain GET and parses the
// response as-is. No script runs, so "network idle" is simply "response body
// fully read".
type HTTPEngine struct {
	client      *http.Client
	maxBodySize int64
}

// HTTPOption configures an HTTPEngine.
type HTTPOption func(*httpSettings)

// httpSettings collects options before the client is built.
type httpSettings struct {
	timeout     time.Duration
	proxyURL    string
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	transport   http.RoundTripper
}

// WithHTTPTimeout bounds each fetch. Non-positive values are ignored.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(s *httpSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPProxy routes requests through an http://, https:// or socks5://
// proxy.
func WithHTTPProxy(proxyURL string) HTTPOption {
	return func(s *httpSettings) {
		s.proxyURL = proxyURL
	}
}

// WithHTTPUserAgent sets the User-Agent header.
func WithHTTPUserAgent(ua string) HTTPOption {
	return func(s *httpSettings) {
		s.userAgent = ua
	}
}

// WithHTTPHeaders adds headers to every request.
func WithHTTPHeaders(headers map[string]string) HTTPOption {
	return func(s *httpSettings) {
		s.headers = headers
	}
}

// WithMaxBodySize caps the bytes read per response. Non-positive values are
// ignored.
func WithMaxBodySize(n int64) HTTPOption {
	return func(s *httpSettings) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithTransport replaces the base transport. Proxy settings are ignored
// when a transport is supplied.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(s *httpSettings) {
		s.transport = rt
	}
}

// NewHTTPEngine creates an HTTPEngine.
func NewHTTPEngine(opts ...HTTPOption) (*HTTPEngine, error) {
	s := &httpSettings{
		timeout:     DefaultNavigationTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	base := s.transport
	if base == nil {
		t, err := newTransport(s.proxyURL)
		if err != nil {
			return nil, err
		}
		base = t
	}

	headers := make(map[string]string, len(s.headers)+1)
	for k, v := range s.headers {
		headers[k] = v
	}
	if s.userAgent != "" {
		headers["User-Agent"] = s.userAgent
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport: &headerInjectingTransport{base: base, headers: headers},
			Timeout:   s.timeout,
		},
		maxBodySize: s.maxBodySize,
	}, nil
}

// newTransport builds a transport that honors proxyURL.
func newTransport(proxyURL string) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	if proxyURL == "" {
		return t, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		d, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
		}
		t.Proxy = nil
		t.DialContext = contextDialer(d)
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return t, nil
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

// Open returns a Tab bound to the engine's client. HTTP tabs hold no
// resources between requests, so opening one is free.
func (e *HTTPEngine) Open(_ context.Context) (Tab, error) {
	return &httpTab{engine: e}, nil
}

// httpTab holds one fetched document.
type httpTab struct {
	engine   *HTTPEngine
	body     string
	location Location
	loaded   bool
}

// Navigate fetches rawURL. A non-2xx status is a render failure.
func (t *httpTab) Navigate(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := t.engine.client.Do(req)
	if err != nil {
		return classifyHTTPError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.engine.maxBodySize))
	if err != nil {
		return classifyHTTPError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	t.body = string(body)
	t.location = documentLocation(resp.Request.URL, t.body)
	t.loaded = true
	return nil
}

// documentLocation pairs the final request URL with the document's
// <base href>, resolved the way a browser resolves it.
func documentLocation(final *url.URL, body string) Location {
	loc := Location{Document: final.String(), Base: final.String()}

	href, err := link.BaseHref(strings.NewReader(body))
	if err != nil || href == "" {
		return loc
	}
	ref, err := url.Parse(href)
	if err != nil {
		return loc
	}
	loc.Base = final.ResolveReference(ref).String()
	return loc
}

// classifyHTTPError maps a client timeout to ErrRenderTimeout.
func classifyHTTPError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}
	return err
}

// errNotLoaded is returned when a Tab is read before a successful Navigate.
var errNotLoaded = errors.New("no document loaded")

// Links extracts raw link tokens from the fetched document.
func (t *httpTab) Links(_ context.Context) ([]string, error) {
	if !t.loaded {
		return nil, errNotLoaded
	}
	return link.Extract(strings.NewReader(t.body))
}

// HTML returns the fetched document unchanged.
func (t *httpTab) HTML(_ context.Context) (string, error) {
	if !t.loaded {
		return "", errNotLoaded
	}
	return t.body, nil
}

// Location returns the final URL of the fetched document.
func (t *httpTab) Location(_ context.Context) (Location, error) {
	if !t.loaded {
		return Location{}, errNotLoaded
	}
	return t.location, nil
}

// Close drops the document.
func (t *httpTab) Close() error {
	t.body = ""
	t.location = Location{}
	t.loaded = false
	return nil
}

// headerInjectingTransport sets configured headers on every request,
// redirects included.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		if strings.EqualFold(k, "Cookie") {
			if existing := clone.Header.Get("Cookie"); existing != "" {
				v = existing + "; " + v
			}
		}
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
