package render

import "context"

// Engine hands out isolated browsing contexts.
type Engine interface {
	// Open acquires a fresh Tab. The caller must Close it.
	Open(ctx context.Context) (Tab, error)
}

// Tab is a single-use browsing context.
type Tab interface {
	// Navigate loads url and returns once the page's network activity has
	// gone idle. It returns ErrRenderTimeout if that never happens within the
	// engine's navigation timeout.
	Navigate(ctx context.Context, url string) error

	// Links returns the raw link tokens of every "[routerlink], a[href]"
	// element in the current DOM, in document order and unresolved.
	Links(ctx context.Context) ([]string, error)

	// HTML serializes the current DOM, doctype included.
	HTML(ctx context.Context) (string, error)

	// Location reports where the loaded document actually lives.
	Location(ctx context.Context) (Location, error)

	// Close releases the browsing context and everything it owns.
	Close() error
}

// Location is the address of a loaded document.
type Location struct {
	// Document is the document's URL after redirects.
	Document string `json:"document"`

	// Base is the URL relative links resolve against. It differs from
	// Document when the page declares <base href>. Empty means Document.
	Base string `json:"base"`
}

// lifecycleNetworkIdle is Chrome's lifecycle event for "no in-flight
// requests for 500ms", the same condition puppeteer calls networkidle0.
const lifecycleNetworkIdle = "networkIdle"

// linkExtractorJS is evaluated in the page to collect raw link tokens.
// routerlink wins over href on the same element.
const linkExtractorJS = `Array.from(document.querySelectorAll("[routerlink], a[href]")).map(
	(el) => el.hasAttribute("routerlink") ? el.getAttribute("routerlink") : el.getAttribute("href")
)`

// locationJS reports the document URL and the base URL the browser resolves
// relative links against.
const locationJS = `({document: document.URL, base: document.baseURI})`

// serializeDOMJS returns the doctype plus the document element's outer HTML,
// matching what a browser's "save page as HTML" would produce.
const serializeDOMJS = `(() => {
	const dt = document.doctype ? new XMLSerializer().serializeToString(document.doctype) : "";
	return dt + document.documentElement.outerHTML;
})()`
