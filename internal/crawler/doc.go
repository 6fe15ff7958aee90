// Package crawler walks a site breadth-first and snapshots every page it
// reaches.
//
// # Architecture
//
// A Crawler owns one Frontier per run and drains it with a single worker:
//
//	pop -> mark visited -> render -> write snapshot -> push new links -> repeat
//
// The Frontier pairs a FIFO queue with a visited set. A URL is marked visited
// as soon as it is popped, before its render starts, so a page that links
// back to itself (or to any page still being processed) never re-enters the
// queue. Links found on a page are appended only after that page has been
// fully rendered, which makes the traversal breadth-first.
//
// Rendering and persistence are collaborators behind the Renderer and
// SnapshotWriter interfaces; *render.Client and *snapshot.Writer satisfy them.
//
// # Failure policy
//
// By default the first render or write failure aborts the run and is
// returned together with the partial Result; snapshots already on disk stay
// there. WithContinueOnError switches to skip-and-log: failures are collected
// in Result.Failures and the crawl goes on.
//
// # Usage
//
//	c := crawler.New(renderClient, snapshot.NewWriter("/var/www"),
//	    crawler.WithLogger(logger),
//	    crawler.WithMaxPages(500),
//	)
//	result, err := c.Run(ctx, "https://example.com/")
package crawler
