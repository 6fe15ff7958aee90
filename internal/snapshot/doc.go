// Package snapshot persists rendered HTML under a document root so a plain
// static file server can answer for a script-driven site.
//
// A URL maps to a file by its path alone: extensionless paths become
// directory documents ("/posts" -> "{root}/posts/index.html"), paths with an
// extension are written as-is ("/posts/report.pdf" -> "{root}/posts/report.pdf").
// Query strings and fragments do not take part in the mapping.
package snapshot
