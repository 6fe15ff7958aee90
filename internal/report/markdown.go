package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs the summary as GitHub-flavored Markdown.
//
// Design decision: nao1215/markdown gives tables, alerts and mermaid charts
// without hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeChart(md, summary)
	w.writePages(md, summary)
	w.writeFailures(md, summary)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by prerender*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Prerender Summary")
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + s.Seed + "`"},
		{"State", s.State},
		{"Pages Written", strconv.Itoa(s.PagesWritten)},
		{"Cached Pages", strconv.Itoa(s.CachedPages)},
		{"Failures", strconv.Itoa(len(s.Failures))},
		{"Elapsed", strconv.FormatInt(s.ElapsedMS, 10) + " ms"},
		{"Total Render Time", strconv.FormatInt(s.TotalRenderMS, 10) + " ms"},
	}
	if !s.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")})
	}
	if s.Pending > 0 {
		rows = append(rows, []string{"Not Crawled", strconv.Itoa(s.Pending)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.Error != "":
		md.Cautionf("Crawl aborted: %s", s.Error)
	case len(s.Failures) > 0:
		md.Warningf("%d page(s) failed and were skipped.", len(s.Failures))
	case s.Pending > 0:
		md.Importantf("Page limit reached. %d queued URL(s) were not crawled.", s.Pending)
	default:
		md.Tip("Every reachable page was rendered.")
	}
	md.PlainText("")
}

// writeChart shows how pages were produced: rendered, cached or failed.
func (w *MarkdownWriter) writeChart(md *markdown.Markdown, s *Summary) {
	rendered := s.PagesWritten - s.CachedPages
	if rendered+s.CachedPages+len(s.Failures) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)
	if rendered > 0 {
		chart.LabelAndIntValue("Rendered", uint64(rendered))
	}
	if s.CachedPages > 0 {
		chart.LabelAndIntValue("Cached", uint64(s.CachedPages))
	}
	if len(s.Failures) > 0 {
		chart.LabelAndIntValue("Failed", uint64(len(s.Failures)))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, s *Summary) {
	md.H2("Pages")
	md.PlainText("")

	if len(s.Pages) == 0 {
		md.PlainText("No pages were written.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.Pages))
	for i, p := range s.Pages {
		cached := "-"
		if p.Cached {
			cached = "yes"
		}
		rows[i] = []string{
			truncateString(p.URL, 60),
			truncateString(p.Path, 60),
			strconv.Itoa(p.Depth),
			strconv.FormatInt(p.RenderMS, 10),
			cached,
			strconv.Itoa(p.Size),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "File", "Depth", "Render (ms)", "Cached", "Bytes"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, s *Summary) {
	if len(s.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	items := make([]string, len(s.Failures))
	for i, f := range s.Failures {
		items[i] = "`" + f.URL + "` (" + f.Kind + "): " + truncateString(f.Error, 120)
	}
	md.BulletList(items...)
	md.PlainText("")
}
