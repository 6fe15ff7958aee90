// Package log builds the slog loggers used by prerender.
//
// Every logger is wrapped in a RedactingHandler, which masks secrets before
// they reach the output:
//   - attributes whose key names a credential (cookie, authorization, token, ...)
//   - string values that look like a credential (JWTs, bearer and basic auth)
//   - URL passwords and sensitive query parameters inside logged URLs
//
// Headers and cookies from the site config file flow through the render
// engines, so debug logs would otherwise leak them.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("rendered page",
//	    "url", "https://example.com/login?token=abc", // logged as token=***REDACTED***
//	)
package log
