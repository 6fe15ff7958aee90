package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// pathFilter decides from a URL's path whether the crawl may follow it.
type pathFilter struct {
	// ignore patterns veto a path outright.
	ignore []string

	// follow patterns, when set, must match for a path to be allowed.
	follow []string
}

// allows applies the filter to rawURL:
//  1. a path matching any ignore pattern is rejected
//  2. with follow patterns set, a path matching none of them is rejected
//  3. anything else is allowed
func (f pathFilter) allows(rawURL string) bool {
	if len(f.ignore) == 0 && len(f.follow) == 0 {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(f.follow) == 0 {
		return true
	}
	for _, pattern := range f.follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern matches a URL path against a glob:
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - anything else uses filepath.Match, and a pattern without "/" is also
//     tried against the last path segment
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*."); ok && !strings.ContainsAny(ext, "*?[") {
		if strings.HasSuffix(p, "."+ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, p); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(p)); err == nil && matched {
			return true
		}
	}

	return false
}
