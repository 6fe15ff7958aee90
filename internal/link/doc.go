// Package link decides which link tokens found on a rendered page may enter
// the crawl frontier.
//
// A link token is whatever a page exposes as a navigation target: an href,
// a router-relative path from a routerlink attribute, or an absolute URL.
// Normalize resolves a token against the page it was found on and keeps it
// only when the result stays within the page's origin (scheme, host and port).
// This is the policy that keeps a crawl from escaping the target site.
//
// # Usage
//
//	base, _ := url.Parse("https://example.com/posts/")
//	abs, err := link.Normalize(base, "../about")
//	// abs == "https://example.com/about"
//
// Extract pulls raw tokens out of serialized HTML with the same selector the
// browser engine evaluates in the page ("[routerlink], a[href]").
package link
