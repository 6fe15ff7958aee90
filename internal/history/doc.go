// Package history records crawl runs in a SQLite database.
//
// Each run stores its seed, outcome and timing, one row per written page and
// one row per failed page. The crawl itself never reads the history back;
// it exists for operators comparing runs.
//
// Design decision: SQLite via modernc.org/sqlite. The database is one file
// under the XDG data directory and the driver needs no cgo.
package history
