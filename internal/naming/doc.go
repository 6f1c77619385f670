// Package naming resolves the bird name for a photo and builds output
// filenames.
//
// Resolution walks a configurable priority chain: explicit override, the
// species tag in the photo's metadata, an analysis report database row,
// then a regex match against the filename. The filename path is guarded
// against false positives from date and sequence segments, optionally by
// a species name table. An exhausted chain yields an unresolved result,
// never an error.
package naming
