package router

import (
	"fmt"
	"sync"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/canon"
	"github.com/backkem/ejtp/pkg/frame"
	"github.com/backkem/ejtp/pkg/identity"
	"github.com/backkem/ejtp/pkg/jack"
	"github.com/pion/logging"
)

// Client is the subset of client behavior the router depends on. The
// concrete client implementation lives in its own package and imports
// router, not the other way around.
type Client interface {
	Route(f frame.Frame) error
}

// connector is implemented by jacks that can produce an on-demand
// outbound Connection for a destination address (stream transports).
type connector interface {
	ConnectionFor(dest address.Address) (*jack.Connection, error)
}

// routable is satisfied by anything the router can hand a frame to for
// further processing: a Client, a Jack, or a Connection wrapped in
// connRoutable.
type routable interface {
	Route(f frame.Frame) error
}

type connRoutable struct{ c *jack.Connection }

func (r connRoutable) Route(f frame.Frame) error { return r.c.Send(f.Content()) }

// Router is the in-process dispatch engine. It satisfies jack.Router,
// so it can be passed directly to jack.Make/NewUDPJack/NewTCPJack as
// the destination for inbound bytes.
type Router struct {
	Identities *identity.Cache

	log logging.LeveledLogger

	mu          sync.RWMutex
	jacksByKey  map[string]jack.Jack   // keyed by (addrtype, addrdetails)
	jacksByType map[string][]jack.Jack // keyed by addrtype, for routing by transport family
	conns       map[string]*jack.Connection
	clients     map[string]Client
}

// New builds an empty Router. identities may be nil, in which case a
// fresh cache is created; pass a shared cache to let multiple routers
// (or a router and hand-built clients) see the same identities.
func New(identities *identity.Cache, loggerFactory logging.LoggerFactory) *Router {
	if identities == nil {
		identities = identity.NewCache()
	}
	var log logging.LeveledLogger
	if loggerFactory != nil {
		log = loggerFactory.NewLogger("router")
	}
	return &Router{
		Identities:  identities,
		log:         log,
		jacksByKey:  make(map[string]jack.Jack),
		jacksByType: make(map[string][]jack.Jack),
		conns:       make(map[string]*jack.Connection),
		clients:     make(map[string]Client),
	}
}

func jackKey(iface address.Address) string {
	s, err := canon.Encode([]interface{}{iface.AddrType, iface.AddrDetails})
	if err != nil {
		return iface.AddrType
	}
	return s
}

// LoadJack links j to the router under its (addrtype, addrdetails) key.
func (r *Router) LoadJack(j jack.Jack) error {
	key := jackKey(j.Interface())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jacksByKey[key]; exists {
		return fmt.Errorf("%w: jack %s", ErrAlreadyLoaded, key)
	}
	r.jacksByKey[key] = j
	t := j.Interface().AddrType
	r.jacksByType[t] = append(r.jacksByType[t], j)
	return nil
}

// UnloadJack removes j from the router.
func (r *Router) UnloadJack(j jack.Jack) error {
	key := jackKey(j.Interface())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jacksByKey[key]; !exists {
		return fmt.Errorf("%w: jack %s", ErrNotLoaded, key)
	}
	delete(r.jacksByKey, key)
	t := j.Interface().AddrType
	list := r.jacksByType[t]
	for i, candidate := range list {
		if candidate == j {
			r.jacksByType[t] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// LoadClient registers c under addr's string form.
func (r *Router) LoadClient(addr address.Address, c Client) error {
	key := addr.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[key]; exists {
		return fmt.Errorf("%w: client %s", ErrAlreadyLoaded, key)
	}
	r.clients[key] = c
	return nil
}

// KillClient removes the client registered at addr, if any.
func (r *Router) KillClient(addr address.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, addr.Key())
}

func (r *Router) client(addr address.Address) Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[addr.Key()]
}

func (r *Router) connection(addr address.Address) *jack.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[addr.Key()]
}

func (r *Router) jackForType(addrtype string) jack.Jack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.jacksByType[addrtype]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// EnsureJack returns the jack already loaded for iface's transport family,
// or builds and loads one via jack.Make if none exists yet. Transports are
// per-family singletons: two clients on the same udp4 socket share one
// jack rather than each binding their own.
func (r *Router) EnsureJack(iface address.Address, loggerFactory logging.LoggerFactory) (jack.Jack, error) {
	if j := r.jackForType(iface.AddrType); j != nil {
		return j, nil
	}
	j, err := jack.Make(r, iface, loggerFactory)
	if err != nil {
		return nil, err
	}
	if j == nil {
		// "local" and any other jack-less family: nothing to load.
		return nil, nil
	}
	if err := r.LoadJack(j); err != nil {
		return nil, err
	}
	return j, nil
}

// Connect obtains or creates an outbound stream Connection to dest,
// via whichever loaded jack matches dest's transport family, and
// registers it so later frames addressed to dest are found by the
// router's own connection lookup.
func (r *Router) Connect(dest address.Address) (*jack.Connection, error) {
	if c := r.connection(dest); c != nil {
		return c, nil
	}
	j := r.jackForType(dest.AddrType)
	if j == nil {
		return nil, fmt.Errorf("%w: no jack for %q", ErrNoRoute, dest.AddrType)
	}
	conn, ok := j.(connector)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedOp, j)
	}
	c, err := conn.ConnectionFor(dest)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.conns[dest.Key()] = c
	r.mu.Unlock()
	return c, nil
}

// Recv parses data into a frame and dispatches it. It satisfies
// jack.Router, so jacks can call it directly as their inbound sink.
func (r *Router) Recv(data []byte) {
	f, err := frame.Create(data)
	if err != nil {
		if r.log != nil {
			r.log.Infof("could not parse inbound frame: %v", err)
		}
		return
	}
	if err := r.dispatch(f); err != nil && r.log != nil {
		r.log.Warnf("dispatch error: %v", err)
	}
}

// Send hands an already-constructed frame to the router, exactly as a
// client's outbound send does. Dispatch logic is identical whether a
// frame arrived off the wire or was just built locally: it is this
// symmetry that lets a relay client simply resend a frame it received.
func (r *Router) Send(f frame.Frame) error {
	return r.dispatch(f)
}

func (r *Router) dispatch(f frame.Frame) error {
	if rc, ok := f.(frame.ReceiverCategory); ok {
		addr := rc.CategoryAddress()

		if c := r.client(addr); c != nil {
			return r.safeRoute(c, f)
		}
		if conn := r.connection(addr); conn != nil {
			return r.safeRoute(connRoutable{conn}, f)
		}
		if j := r.jackForType(addr.AddrType); j != nil {
			return r.safeRoute(j, f)
		}
		if r.log != nil {
			r.log.Infof("could not deliver frame addressed to %s", addr.Key())
		}
		return nil
	}

	if _, ok := f.(frame.SenderCategory); ok {
		if r.log != nil {
			r.log.Info("frame received directly at the router boundary, dropping")
		}
		return nil
	}

	if r.log != nil {
		r.log.Infof("frame of unrecognized category %T, dropping", f)
	}
	return nil
}

// safeRoute calls recipient.Route, converting a panic into an error so
// a misbehaving client or jack can never take down the router.
func (r *Router) safeRoute(recipient routable, f frame.Frame) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.log != nil {
				r.log.Warnf("recovered panic while routing frame: %v", rec)
			}
			err = fmt.Errorf("router: recovered panic: %v", rec)
		}
	}()
	return recipient.Route(f)
}
