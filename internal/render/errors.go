package render

import "errors"

// ErrDecode marks a source file that could not be decoded. Per-file, never
// batch-fatal.
var ErrDecode = errors.New("image decode failed")
