package crawler

import (
	"errors"
	"time"

	"github.com/nao1215/prerender/internal/link"
	"github.com/nao1215/prerender/internal/render"
)

// State is where a crawl run is in its lifecycle.
type State int

const (
	// StateIdle: the frontier holds only the seed.
	StateIdle State = iota

	// StateDraining: the frontier is being processed one URL at a time.
	StateDraining

	// StateDone: the frontier is empty, or the page limit stopped the run.
	StateDone

	// StateAborted: a fatal error or cancellation ended the run early.
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// PageResult describes one page that was rendered and written.
type PageResult struct {
	// URL is the page URL.
	URL string

	// Depth is the link distance from the seed.
	Depth int

	// Path is the snapshot file.
	Path string

	// Size is the snapshot size in bytes.
	Size int

	// Hash is the hex SHA3-256 of the snapshot.
	Hash string

	// RenderTime is the render cost; zero when served from the render cache.
	RenderTime time.Duration

	// Cached reports whether the render came from the render cache.
	Cached bool

	// LinksFound is the number of distinct same-origin links on the page.
	LinksFound int

	// Queued are the links this page added to the frontier, in order.
	Queued []string
}

// Failure kinds, as reported by Failure.Kind.
const (
	FailureTimeout    = "timeout"
	FailureRender     = "render"
	FailureInvalidURL = "invalid_url"
	FailureWrite      = "write"
)

// Failure records a page that could not be rendered or written.
type Failure struct {
	URL   string
	Depth int
	Kind  string
	Err   error
}

// newFailure classifies err for url.
func newFailure(item Item, err error) Failure {
	kind := FailureWrite
	switch {
	case errors.Is(err, render.ErrRenderTimeout):
		kind = FailureTimeout
	case errors.Is(err, render.ErrRender):
		kind = FailureRender
	case errors.Is(err, link.ErrInvalidURL):
		kind = FailureInvalidURL
	}
	return Failure{URL: item.URL, Depth: item.Depth, Kind: kind, Err: err}
}

// Result is the outcome of a crawl run.
type Result struct {
	// Seed is the normalized seed URL.
	Seed string

	// State is the final state: StateDone or StateAborted.
	State State

	// StartedAt is when the run began.
	StartedAt time.Time

	// Elapsed is the run's wall-clock duration.
	Elapsed time.Duration

	// Pages are the written pages, in crawl order.
	Pages []PageResult

	// Failures are the pages that failed. In abort mode this holds at most
	// the one failure that stopped the run.
	Failures []Failure

	// Pending lists the URLs still queued when the run ended, head first.
	Pending []string
}

// PagesWritten returns the number of snapshots written.
func (r *Result) PagesWritten() int {
	return len(r.Pages)
}

// TotalRenderTime sums the render time of all pages.
func (r *Result) TotalRenderTime() time.Duration {
	var total time.Duration
	for _, p := range r.Pages {
		total += p.RenderTime
	}
	return total
}
