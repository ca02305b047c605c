// Package errs defines the sentinel errors shared across services and
// handlers. Handlers translate these into HTTP status codes with errors.Is.
package errs

import "errors"

var (
	// ErrValidation marks bad caller input, rejected before touching storage.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness or state conflict (duplicate email).
	ErrConflict = errors.New("conflict")

	// ErrEncode marks a codec failure while compressing a payload.
	ErrEncode = errors.New("encode failed")

	// ErrDecode marks a codec failure while decompressing a stored payload.
	// Never swallowed: a complaint with unreadable payloads is surfaced as
	// broken, not silently empty.
	ErrDecode = errors.New("decode failed")
)
