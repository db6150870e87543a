// Package identity implements EJTP identities — name, location and
// encryptor prototype triples — and the IdentityCache that looks them up
// by location and by name.
package identity

import "errors"

// Identity and cache errors.
var (
	// ErrMissingField is returned by Deserialize when a required field
	// (name, location, encryptor) is absent.
	ErrMissingField = errors.New("identity: missing required field")

	// ErrMismatchedKey is returned when a cache entry's key doesn't equal
	// the string form of its identity's location.
	ErrMismatchedKey = errors.New("identity: key does not match identity location")

	// ErrNotFound names a failed identity lookup. Cache lookups report a
	// miss with a false boolean and do not return it.
	ErrNotFound = errors.New("identity: not found")
)
