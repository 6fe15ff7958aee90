// Package report writes the summary of a crawl run.
//
// Writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter: structured JSON for tools
//   - MarkdownWriter: GitHub-flavored Markdown
//
// All writers take a Summary, built once from a crawler.Result and the error
// the run ended with, so every format reports the same numbers.
package report
