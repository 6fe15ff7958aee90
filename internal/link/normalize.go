package link

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// defaultPorts maps schemes to the port implied when none is written.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// ParseSeed parses the URL a crawl starts from.
// The seed must be absolute with an http or https scheme and a host.
// It is returned in the same normalized form Normalize produces, so the seed
// and links pointing back at it compare equal.
func ParseSeed(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty seed", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidURL, raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: %s: scheme must be http or https", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %s: missing host", ErrInvalidURL, raw)
	}

	u.Scheme = scheme
	clean(u)
	return u, nil
}

// Normalize resolves raw against base and returns the absolute URL string.
//
// Resolution follows RFC 3986, so scheme-relative ("//host/x"), path-relative
// ("x", "../x"), query-only ("?q") and fragment-only ("#f") tokens all resolve
// against base. The result is rejected with ErrCrossOrigin when its origin
// differs from base's origin and with ErrEmpty when raw is blank.
//
// The fragment is dropped and an empty path becomes "/"; nothing else is
// canonicalized.
func Normalize(base *url.URL, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}

	resolved := base.ResolveReference(ref)
	if !SameOrigin(base, resolved) {
		return "", fmt.Errorf("%w: %s", ErrCrossOrigin, resolved.String())
	}

	clean(resolved)
	return resolved.String(), nil
}

// Origin returns the scheme://host:port triple of u with the scheme and host
// lowercased and the default port written out.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		port = defaultPorts[scheme]
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}

// SameOrigin reports whether a and b share scheme, host and port.
// URLs without a host never match.
func SameOrigin(a, b *url.URL) bool {
	if a.Host == "" || b.Host == "" {
		return false
	}
	return Origin(a) == Origin(b)
}

// clean drops the fragment and roots an empty path.
func clean(u *url.URL) {
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}
}
