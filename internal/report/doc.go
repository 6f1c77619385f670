// Package report reads species identifications from an analysis report
// database left beside a photo folder by an earlier AI review pass.
//
// The database is SQLite. Discovery prefers .superpicky/report.db over a
// bare report.db and walks a few levels up from the photo so a nested
// folder layout still finds the root copy. The handle is strictly
// read-only.
package report
