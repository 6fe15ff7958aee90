package config

import (
	"maps"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Rendering engines selectable with --engine.
const (
	// EngineChrome renders pages in headless Chrome through chromedp.
	EngineChrome = "chrome"

	// EngineHTTP fetches pages with a plain HTTP GET. Scripts are not run.
	EngineHTTP = "http"
)

// Default configuration values.
const (
	// DefaultRoot is the conventional web server document root.
	DefaultRoot = "/var/www"

	// DefaultTimeout bounds one page navigation, including the wait for the
	// network to go idle.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth means links are followed at any depth.
	DefaultMaxDepth = -1

	// AppName is the application name used for XDG directory paths.
	AppName = "prerender"
)

// Config holds all options of a prerender run.
// It is populated from CLI flags, then from the site entry of the config
// file, and passed down explicitly.
//
// Design decision: one flat struct. The option count is small and every
// option is consumed in one place.
type Config struct {
	// Root is the directory snapshots are written under.
	Root string

	// SeedURL is the absolute http(s) URL the crawl starts from.
	SeedURL string

	// ChromiumPath overrides the Chrome/Chromium executable. Empty means
	// chromedp's own lookup.
	ChromiumPath string

	// Engine is EngineChrome or EngineHTTP.
	Engine string

	// Timeout is the per-page navigation timeout.
	Timeout time.Duration

	// MaxPages stops the crawl after this many pages. 0 means no limit.
	MaxPages int

	// MaxDepth limits link following. Negative means no limit and 0 renders
	// the seed only.
	MaxDepth int

	// KeepGoing skips pages that fail instead of aborting the crawl.
	KeepGoing bool

	// Proxy is an http, https, socks5 or socks5h proxy URL.
	Proxy string

	// UserAgent overrides the engine's User-Agent.
	UserAgent string

	// Headers are extra request headers sent with every page request.
	// Filled from the config file.
	Headers map[string]string

	// Cookie is sent as a Cookie header. Filled from the config file.
	Cookie string

	// IgnorePatterns and FollowPatterns are URL path globs from the config
	// file.
	IgnorePatterns []string
	FollowPatterns []string

	// ConfigFilePath is the YAML config file. Empty means search the default
	// locations.
	ConfigFilePath string

	// SaveHistory records the run in the SQLite history database.
	SaveHistory bool

	// DBDir is the history database directory.
	// Defaults to the XDG data directory (~/.local/share/prerender on Linux).
	DBDir string

	// JSONReport and MarkdownReport select the crawl summary format.
	// Neither set means plain text. Mutually exclusive.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the summary output file. Empty means stdout.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Root:     DefaultRoot,
		Engine:   EngineChrome,
		Timeout:  DefaultTimeout,
		MaxDepth: DefaultMaxDepth,
		DBDir:    XDGDataDir(),
	}
}

// ApplySite merges a site configuration into c.
// Headers, cookie and patterns from the file are added; user agent and depth
// only fill options the command line left at their defaults.
func (c *Config) ApplySite(sc SiteConfig) {
	if len(sc.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(sc.Headers))
		}
		maps.Copy(c.Headers, sc.Headers)
	}
	if sc.Cookie != "" {
		c.Cookie = sc.Cookie
	}
	if c.UserAgent == "" {
		c.UserAgent = sc.UserAgent
	}
	if sc.Depth != 0 && c.MaxDepth == DefaultMaxDepth {
		c.MaxDepth = sc.Depth
	}
	c.IgnorePatterns = append(c.IgnorePatterns, sc.IgnorePatterns...)
	c.FollowPatterns = append(c.FollowPatterns, sc.FollowPatterns...)
}

// RequestHeaders returns the extra request headers including the cookie.
// It returns nil when there are none.
func (c *Config) RequestHeaders() map[string]string {
	if len(c.Headers) == 0 && c.Cookie == "" {
		return nil
	}
	headers := maps.Clone(c.Headers)
	if headers == nil {
		headers = make(map[string]string, 1)
	}
	if c.Cookie != "" {
		headers["Cookie"] = c.Cookie
	}
	return headers
}

// XDGDataDir returns the XDG data directory for prerender.
// On Linux: ~/.local/share/prerender
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for prerender.
// On Linux: ~/.config/prerender
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
//
// Design decision: validation happens once after flag parsing so mistakes
// fail before any browser is started.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return ErrNoSeed
	}

	if c.Root == "" {
		return ErrNoRoot
	}

	// A zero timeout would fail every navigation immediately
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.Engine != EngineChrome && c.Engine != EngineHTTP {
		return ErrUnknownEngine
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
