package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/prerender/internal/config"
	"github.com/nao1215/prerender/internal/crawler"
	"github.com/nao1215/prerender/internal/history"
	"github.com/nao1215/prerender/internal/link"
	"github.com/nao1215/prerender/internal/log"
	"github.com/nao1215/prerender/internal/render"
	"github.com/nao1215/prerender/internal/report"
	"github.com/nao1215/prerender/internal/snapshot"
	"github.com/spf13/cobra"
)

// runRootCmd executes a crawl from the command line.
func runRootCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	// Interrupt stops the crawl between pages; snapshots already written stay.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from flags and the config file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.SeedURL, err = flags.GetString("url"); err != nil {
		return nil, err
	}
	if cfg.Root, err = flags.GetString("root"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
		return nil, err
	}
	if cfg.KeepGoing, err = flags.GetBool("keep-going"); err != nil {
		return nil, err
	}
	if cfg.Engine, err = flags.GetString("engine"); err != nil {
		return nil, err
	}
	if cfg.ChromiumPath, err = flags.GetString("chromium"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SaveHistory, err = flags.GetBool("history"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyConfigFile merges the site entry for the seed host into cfg.
// A missing file is only an error when the user named it explicitly.
func applyConfigFile(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if explicit {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	host := ""
	if u, err := url.Parse(cfg.SeedURL); err == nil {
		host = u.Host
	}
	cfg.ApplySite(file.SiteConfig(host))
	return nil
}

// newEngine builds the render engine named by cfg.Engine.
func newEngine(cfg *config.Config, logger *slog.Logger) (render.Engine, error) {
	headers := cfg.RequestHeaders()

	switch cfg.Engine {
	case config.EngineHTTP:
		engine, err := render.NewHTTPEngine(
			render.WithHTTPTimeout(cfg.Timeout),
			render.WithHTTPProxy(cfg.Proxy),
			render.WithHTTPUserAgent(cfg.UserAgent),
			render.WithHTTPHeaders(headers),
		)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case config.EngineChrome:
		return render.NewChromeEngine(
			render.WithExecPath(cfg.ChromiumPath),
			render.WithNavigationTimeout(cfg.Timeout),
			render.WithUserAgent(cfg.UserAgent),
			render.WithProxy(cfg.Proxy),
			render.WithHeaders(headers),
			render.WithChromeLogger(logger),
		), nil
	default:
		return nil, config.ErrUnknownEngine
	}
}

// runCrawl performs the crawl, records it and writes the summary to out.
// The returned error is the crawl's own failure, if any.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	seed, err := link.ParseSeed(cfg.SeedURL)
	if err != nil {
		return fmt.Errorf("invalid seed URL %q: %w", cfg.SeedURL, err)
	}

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s engine: %w", cfg.Engine, err)
	}

	client := render.NewClient(engine, render.WithLogger(logger))
	writer := snapshot.NewWriter(cfg.Root)
	c := crawler.New(client, writer,
		crawler.WithLogger(logger),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
		crawler.WithContinueOnError(cfg.KeepGoing),
	)

	logger.Debug("starting crawl",
		"seed", seed.String(),
		"root", writer.Root(),
		"engine", cfg.Engine,
		"timeout", cfg.Timeout,
		"headers", cfg.RequestHeaders(),
	)

	result, runErr := c.Run(ctx, seed.String())

	if cfg.SaveHistory && result != nil {
		// The crawl outcome matters more than its record; a history failure
		// is logged, not returned.
		if err := saveHistory(context.WithoutCancel(ctx), cfg.DBDir, result, runErr, logger); err != nil {
			logger.Error("failed to save history", "dir", cfg.DBDir, "error", err)
		}
	}

	if err := outputReport(cfg, report.NewSummary(result, runErr), out); err != nil {
		logger.Error("failed to write summary", "error", err)
		if runErr == nil {
			return err
		}
	}

	return runErr
}

// saveHistory appends the run to the history database in dir.
func saveHistory(ctx context.Context, dir string, result *crawler.Result, runErr error, logger *slog.Logger) error {
	store, err := history.Open(dir, history.DefaultOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, result, runErr)
	if err != nil {
		return err
	}
	logger.Info("run recorded", "id", id, "db", store.Path())
	return nil
}

// reportFormat maps the report flags to a report format name.
func reportFormat(cfg *config.Config) string {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// outputReport writes the summary to cfg.ReportFile, or to out when unset.
func outputReport(cfg *config.Config, summary *report.Summary, out io.Writer) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := report.New(reportFormat(cfg), out)
	if err != nil {
		return err
	}
	_, err = w.Write(summary)
	return err
}
