package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and name exactly which
// option is wrong.
//
// Design decision: package-level sentinels let callers branch with
// errors.Is() while the message stays readable on the command line.
var (
	// ErrNoSeed is returned when no seed URL was given with --url.
	ErrNoSeed = errors.New("no seed URL specified: use --url")

	// ErrNoRoot is returned when the snapshot root directory is empty.
	ErrNoRoot = errors.New("no snapshot root specified: use --root")

	// ErrInvalidTimeout is returned when the navigation timeout is not positive.
	// A zero timeout would fail every page before it loads.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrUnknownEngine is returned when --engine names an engine that does
	// not exist.
	ErrUnknownEngine = errors.New("unknown engine: must be \"chrome\" or \"http\"")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one summary format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
