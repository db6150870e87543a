// Package router implements the in-process dispatch engine: it parses
// inbound bytes into frames, demultiplexes them to local clients or
// hands them off to jacks and connections for onward transmission, and
// owns the registries jacks, connections and clients are loaded into.
package router

import "errors"

var (
	ErrAlreadyLoaded  = errors.New("router: already loaded")
	ErrNotLoaded      = errors.New("router: not loaded")
	ErrNoRoute        = errors.New("router: no client, connection or jack for address")
	ErrUnsupportedOp  = errors.New("router: jack does not support on-demand connections")
	ErrUnexpectedKind = errors.New("router: frame is neither sender- nor receiver-addressed")
)
