package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs a plain-text summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// listPages prints every written page, not only the totals.
	listPages bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithPageList prints one line per written page.
func WithPageList(list bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.listPages = list
	}
}

// NewSimpleWriter creates a SimpleWriter.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writePages(&sb, summary)
	w.writeFailures(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("PRERENDER SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:          %s\n", s.Seed)
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Started:       %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(sb, "Elapsed:       %s\n", time.Duration(s.ElapsedMS)*time.Millisecond)
	fmt.Fprintf(sb, "Pages written: %d (%d from cache)\n", s.PagesWritten, s.CachedPages)
	fmt.Fprintf(sb, "Render time:   %s\n", time.Duration(s.TotalRenderMS)*time.Millisecond)
	fmt.Fprintf(sb, "Failures:      %d\n", len(s.Failures))
	if s.Pending > 0 {
		fmt.Fprintf(sb, "Not crawled:   %d\n", s.Pending)
	}

	switch {
	case s.Error != "":
		fmt.Fprintf(sb, "Status:        ABORTED - %s\n", s.Error)
	case len(s.Failures) > 0:
		sb.WriteString("Status:        Complete with failures\n")
	default:
		sb.WriteString("Status:        Complete\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, s *Summary) {
	if !w.listPages || len(s.Pages) == 0 {
		return
	}

	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, p := range s.Pages {
		cached := ""
		if p.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(sb, "  [+] %s -> %s %dms%s\n", p.URL, p.Path, p.RenderMS, cached)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, s *Summary) {
	if len(s.Failures) == 0 {
		return
	}

	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, f := range s.Failures {
		fmt.Fprintf(sb, "  [!] %s [%s] %s\n", f.URL, f.Kind, f.Error)
	}
	sb.WriteString("\n")
}
