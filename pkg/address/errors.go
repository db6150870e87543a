// Package address implements EJTP's structured endpoint identifier: a
// short transport tag, transport-specific details, and an optional
// callsign distinguishing multiple endpoints on the same host+transport.
package address

import "errors"

// Address errors.
var (
	// ErrInvalidFormat is returned when Create is given a value that
	// can't be interpreted as an address at all (wrong JSON shape, wrong
	// Go type, a non-string addrtype).
	ErrInvalidFormat = errors.New("address: invalid address format")

	// ErrInvalidLength is returned when the structured form has fewer
	// than 2 or more than 3 elements.
	ErrInvalidLength = errors.New("address: structured form must have 2 or 3 elements")
)
