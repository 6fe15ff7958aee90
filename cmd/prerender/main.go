// Package main provides the entry point for the prerender CLI.
//
// prerender crawls a site from a seed URL, renders each same-origin page in
// headless Chrome and writes the resulting HTML under a document root, so
// that clients which cannot run JavaScript can be served static snapshots.
//
// Usage:
//
//	prerender --url https://www.example.com/ --root /var/www
//
// See --help for all available options.
package main

func main() {
	Execute()
}
