package main

import (
	"fmt"
	"os"

	"github.com/nao1215/prerender/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the prerender command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prerender",
		Short: "Render a JavaScript site into static HTML snapshots",
		Long: `prerender crawls a site starting from a seed URL. Each page is rendered in
headless Chrome, same-origin links are followed breadth-first, and the
rendered HTML is written under the document root:

  https://www.example.com/          -> {root}/index.html
  https://www.example.com/posts     -> {root}/posts/index.html
  https://www.example.com/feed.xml  -> {root}/feed.xml

The first page that fails to render aborts the crawl unless --keep-going is
set. Snapshots written before the failure are kept.

Examples:
  # Snapshot a site into /var/www
  prerender --url https://www.example.com/

  # Use a specific Chromium and a longer timeout
  prerender -u https://www.example.com/ -c /usr/bin/chromium -t 1m

  # Fetch without a browser (no JavaScript) and print a JSON summary
  prerender -u https://www.example.com/ -e http --json

Configuration file (.prerender) example:
  defaults:
    userAgent: "prerender/1.0"
  sites:
    www.example.com:
      cookie: "session=abc123"
      ignorePatterns:
        - "/admin/*"
        - "*.pdf"`,
		Args:          cobra.NoArgs,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}
	cmd.SetVersionTemplate(versionTemplate())

	flags := cmd.Flags()

	// Crawl
	flags.StringP("url", "u", "", "Seed URL to start crawling from (required)")
	flags.StringP("root", "d", config.DefaultRoot, "Directory snapshots are written under")
	flags.IntP("max-pages", "p", 0, "Stop after this many pages (0 = unlimited)")
	flags.Int("max-depth", config.DefaultMaxDepth, "Maximum link depth from the seed (-1 = unlimited)")
	flags.BoolP("keep-going", "k", false, "Skip pages that fail instead of aborting")

	// Rendering
	flags.StringP("engine", "e", config.EngineChrome, `Rendering engine: "chrome" or "http"`)
	flags.StringP("chromium", "c", "", "Chrome/Chromium executable (default: search PATH)")
	flags.DurationP("timeout", "t", config.DefaultTimeout, "Per-page navigation timeout")
	flags.String("proxy", "", "Proxy URL (http, https, socks5 or socks5h)")
	flags.String("user-agent", "", "User-Agent override")

	// Configuration file
	flags.String("config", "", "Configuration file path (default: .prerender in current or home directory)")

	// History
	flags.Bool("history", false, "Record the run in the history database")
	flags.String("db-dir", config.XDGDataDir(), "History database directory")

	// Report
	flags.BoolP("json", "j", false, "Output JSON summary (mutually exclusive with --markdown)")
	flags.BoolP("markdown", "m", false, "Output Markdown summary (mutually exclusive with --json)")
	flags.StringP("output", "o", "", "Write the summary to this file instead of stdout")

	flags.BoolP("verbose", "v", false, "Enable verbose logging")

	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
