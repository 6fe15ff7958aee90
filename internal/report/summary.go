package report

import (
	"slices"
	"time"

	"github.com/nao1215/prerender/internal/crawler"
)

// Summary is the output-ready view of a crawl run.
type Summary struct {
	Seed          string           `json:"seed"`
	State         string           `json:"state"`
	StartedAt     time.Time        `json:"startedAt"`
	ElapsedMS     int64            `json:"elapsedMs"`
	TotalRenderMS int64            `json:"totalRenderMs"`
	PagesWritten  int              `json:"pagesWritten"`
	CachedPages   int              `json:"cachedPages"`
	Pending       int              `json:"pending"`
	NotCrawled    []string         `json:"notCrawled,omitempty"`
	Error         string           `json:"error,omitempty"`
	Pages         []PageSummary    `json:"pages"`
	Failures      []FailureSummary `json:"failures"`
}

// PageSummary is one written page.
type PageSummary struct {
	URL      string `json:"url"`
	Path     string `json:"path"`
	Depth    int    `json:"depth"`
	RenderMS int64  `json:"renderMs"`
	Cached   bool   `json:"cached"`
	Size     int    `json:"size"`
	Hash     string `json:"hash"`
	Links    int    `json:"links"`
	Queued   int    `json:"queued"`
}

// FailureSummary is one failed page.
type FailureSummary struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// NewSummary builds a Summary from a crawl result and the error the run
// returned, which may be nil.
func NewSummary(result *crawler.Result, runErr error) *Summary {
	s := &Summary{
		Pages:    make([]PageSummary, 0),
		Failures: make([]FailureSummary, 0),
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	if result == nil {
		s.State = crawler.StateAborted.String()
		return s
	}

	s.Seed = result.Seed
	s.State = result.State.String()
	s.StartedAt = result.StartedAt
	s.ElapsedMS = result.Elapsed.Milliseconds()
	s.TotalRenderMS = result.TotalRenderTime().Milliseconds()
	s.PagesWritten = result.PagesWritten()
	s.Pending = len(result.Pending)
	s.NotCrawled = slices.Clone(result.Pending)

	for _, p := range result.Pages {
		if p.Cached {
			s.CachedPages++
		}
		s.Pages = append(s.Pages, PageSummary{
			URL:      p.URL,
			Path:     p.Path,
			Depth:    p.Depth,
			RenderMS: p.RenderTime.Milliseconds(),
			Cached:   p.Cached,
			Size:     p.Size,
			Hash:     p.Hash,
			Links:    p.LinksFound,
			Queued:   len(p.Queued),
		})
	}

	for _, f := range result.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		s.Failures = append(s.Failures, FailureSummary{
			URL:   f.URL,
			Depth: f.Depth,
			Kind:  f.Kind,
			Error: msg,
		})
	}
	return s
}

// Succeeded reports whether the run drained without a fatal error.
func (s *Summary) Succeeded() bool {
	return s.Error == "" && s.State == crawler.StateDone.String()
}
