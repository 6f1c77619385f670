package metadata

import "errors"

var (
	// ErrUnavailable indicates no metadata could be read from a file. It is
	// recoverable: the file still renders with blank fields.
	ErrUnavailable = errors.New("metadata unavailable")

	// ErrProcess indicates the exiftool subprocess failed to start or
	// respond. It downgrades extraction to the embedded fallback and never
	// aborts a batch.
	ErrProcess = errors.New("exiftool process error")
)
