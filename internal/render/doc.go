// Package render turns a URL into fully rendered HTML and the same-origin
// links found in it.
//
// # Components
//
//   - Engine / Tab: the browser capability. An Engine hands out isolated
//     Tabs; a Tab navigates, waits for the network to go idle, reports the
//     raw link tokens in the DOM and serializes the DOM.
//   - ChromeEngine: Engine backed by a headless Chrome/Chromium via chromedp.
//     Every Open launches a fresh browser process, so renders never share
//     cookies, storage or service workers.
//   - HTTPEngine: Engine that performs a plain GET and parses the response.
//     It executes no scripts; use it for static sites and in tests.
//   - Cache: process-lifetime memo of URL -> rendered entry.
//   - Client: the render entry point. It consults the Cache, drives one Tab
//     per miss, normalizes links with package link and times the render.
//
// # Errors
//
// A navigation that never reaches network idle within the engine timeout
// fails with ErrRenderTimeout. Every other engine failure is an *Error and
// matches ErrRender. Timeouts are wrapped in *Error too, so a caller that only
// cares about "render failed" can test for ErrRender alone.
//
// # Usage
//
//	engine := render.NewChromeEngine(render.WithExecPath("/usr/bin/chromium"))
//	client := render.NewClient(engine, render.WithLogger(logger))
//	res, err := client.Render(ctx, "https://example.com/")
package render
