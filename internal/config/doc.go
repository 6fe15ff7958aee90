// Package config provides the configuration for prerender: the flag-backed
// Config, the optional YAML site configuration file, and the XDG directories
// the tool uses for its config file and history database.
package config
