package jack

import (
	"fmt"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/frame"
)

// Router is the subset of the router's behavior a Jack depends on.
// Defined here, rather than imported from a router package, so that
// pkg/jack has no dependency on pkg/router: the router package holds
// the concrete implementation and imports pkg/jack, not the reverse.
type Router interface {
	// Recv hands the router a newly-arrived frame's raw bytes for
	// parsing and dispatch.
	Recv(data []byte)
}

// Jack is a transport adapter: it moves frame bytes between the router
// and some underlying carrier (a UDP socket, a TCP listener and its
// connections, an in-process pipe).
type Jack interface {
	// Interface returns the local bind address of this jack.
	Interface() address.Address
	// Route sends f out over the underlying transport. It blocks until
	// the jack has finished initializing.
	Route(f frame.Frame) error
	// Close stops the jack's background work and releases its resources.
	// It blocks until cleanup has completed.
	Close() error
}

// gate is a one-shot readiness signal, closed exactly once to unblock
// every waiter. It backs a jack's three readiness points (init done,
// ready to route, closed and cleaned).
type gate chan struct{}

func newGate() gate { return make(gate) }

func (g gate) release() { close(g) }

func (g gate) wait() { <-g }

// destinationOf extracts the destination address a frame was built
// against, for jacks that need to compute a sockaddr or connection key
// from it. Only EncryptedFrame and SignedFrame carry an address; any
// other frame kind cannot be routed directly.
func destinationOf(f frame.Frame) (address.Address, error) {
	ac, ok := f.(frame.AddressCategory)
	if !ok {
		return address.Address{}, fmt.Errorf("%w: %T", ErrNoRoute, f)
	}
	return ac.CategoryAddress(), nil
}

func addrDetailsPair(a address.Address) (host string, port int, err error) {
	list, ok := a.AddrDetails.([]interface{})
	if !ok || len(list) != 2 {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidAddress, a.AddrDetails)
	}
	host, ok = list[0].(string)
	if !ok {
		return "", 0, fmt.Errorf("%w: host must be a string", ErrInvalidAddress)
	}
	switch p := list[1].(type) {
	case int64:
		port = int(p)
	case float64:
		port = int(p)
	default:
		return "", 0, fmt.Errorf("%w: port must be a number", ErrInvalidAddress)
	}
	return host, port, nil
}
