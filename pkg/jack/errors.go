// Package jack implements transport adapters: the glue between a kernel
// socket (or an in-process substitute) and the router. A Jack turns
// outbound frames into bytes on some wire and turns inbound bytes back
// into a call to the router; stream transports additionally multiplex
// per-peer Connections that perform length-prefixed reframing.
package jack

import "errors"

var (
	ErrClosed          = errors.New("jack: closed")
	ErrNoHandler       = errors.New("jack: no router configured")
	ErrInvalidAddress  = errors.New("jack: invalid address for this transport")
	ErrNoRoute         = errors.New("jack: frame carries no destination address")
	ErrFrameTooLarge   = errors.New("jack: frame exceeds maximum size")
	ErrMalformedPrefix = errors.New("jack: malformed stream length prefix")
)
