// Package canon implements the canonical ("strict") JSON encoding and the
// SHA-1-based hashing helpers used throughout EJTP for address string
// forms, frame headers, signed content, and identity cache files.
package canon

import "errors"

// Canon errors.
var (
	// ErrUnsupportedType is returned when Encode is asked to serialize a
	// value canonical JSON has no representation for (floats that aren't
	// whole numbers, non-string map keys, channels, funcs, and so on).
	ErrUnsupportedType = errors.New("canon: unsupported type for canonical encoding")

	// ErrInvalidJSON is returned by Strictify when its input isn't valid JSON.
	ErrInvalidJSON = errors.New("canon: invalid JSON input")
)
