// Package client implements the user-facing endpoint: it registers with a
// router under an address, builds outbound frames (onion-wrapped across a
// hop list when more than one address is given), and unwraps and delivers
// inbound ones through a callback.
package client

import "errors"

var (
	// ErrNoIdentity is returned when an operation needs an Identity for an
	// address (this client's own, or a hop's) that isn't in the cache.
	ErrNoIdentity = errors.New("client: no identity for address")

	// ErrEmptyHopList is returned by OWriteJSON when given no hops at all.
	ErrEmptyHopList = errors.New("client: empty hop list")
)
