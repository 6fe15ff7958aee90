package config

import (
	"maps"
	"slices"
)

// SiteConfig holds per-site crawl settings from the config file.
type SiteConfig struct {
	// Cookie is sent with every request to the site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers for the site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the engine's User-Agent for the site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Depth overrides the link depth limit. Zero means use the global setting.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path globs to skip.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns, when set, restrict the crawl to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File is the structure of the .prerender configuration file.
//
//	defaults:
//	  userAgent: "prerender/1.0"
//	sites:
//	  www.example.com:
//	    cookie: "session=abc"
//	    ignorePatterns: ["/admin/*", "*.pdf"]
type File struct {
	// Sites maps a host (with port when not the default) to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless the site entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// SiteConfig returns the settings for host, merged over the defaults.
// The result shares no maps or slices with cf.
func (cf *File) SiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Cookie:         cf.Defaults.Cookie,
		Headers:        maps.Clone(cf.Defaults.Headers),
		UserAgent:      cf.Defaults.UserAgent,
		Depth:          cf.Defaults.Depth,
		IgnorePatterns: slices.Clone(cf.Defaults.IgnorePatterns),
		FollowPatterns: slices.Clone(cf.Defaults.FollowPatterns),
	}

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Depth != 0 {
		result.Depth = site.Depth
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = slices.Clone(site.IgnorePatterns)
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = slices.Clone(site.FollowPatterns)
	}

	return result
}
