package client

import (
	"fmt"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/canon"
	"github.com/backkem/ejtp/pkg/crypto"
	"github.com/backkem/ejtp/pkg/frame"
	"github.com/backkem/ejtp/pkg/identity"
	"github.com/backkem/ejtp/pkg/router"
	"github.com/pion/logging"
)

// Callback receives a value this client has unwrapped down to its JSON
// payload, along with the address it was signed by, if any.
type Callback func(c *Client, value interface{}, sender address.Address)

// Client is a registered endpoint on a Router: it builds frames addressed
// to other endpoints and is handed frames addressed to itself.
type Client struct {
	Iface  address.Address
	Router *router.Router
	Cache  *identity.Cache

	// Callback is invoked for every value this client receives. A nil
	// Callback just logs the delivery.
	Callback Callback

	// Relay is called for a frame whose receiver address isn't this
	// client's own; it is a hook point callers can override (e.g. to log
	// or drop instead of forwarding). Defaults to resending the frame
	// through the router exactly as an outbound send would.
	Relay func(f frame.Frame) error

	log logging.LeveledLogger
}

// New builds a Client at iface, registers it with r, and, if makeJack is
// true, ensures a jack exists for iface's transport (binding one via
// r.EnsureJack if none is loaded yet).
func New(r *router.Router, iface address.Address, makeJack bool, loggerFactory logging.LoggerFactory) (*Client, error) {
	var log logging.LeveledLogger
	if loggerFactory != nil {
		log = loggerFactory.NewLogger("client")
	}

	c := &Client{
		Iface:  iface,
		Router: r,
		Cache:  r.Identities,
		log:    log,
	}
	c.Relay = c.defaultRelay

	if makeJack {
		if _, err := r.EnsureJack(iface, loggerFactory); err != nil {
			return nil, fmt.Errorf("client: %w", err)
		}
	}

	if err := r.LoadClient(iface, c); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return c, nil
}

// Close unregisters the client from its router.
func (c *Client) Close() {
	c.Router.KillClient(c.Iface)
}

// Send hands an already-built frame to the router. It is the same
// operation the router performs for a frame that just arrived off the
// wire: send and receive share one dispatch path.
func (c *Client) Send(f frame.Frame) error {
	return c.Router.Send(f)
}

func (c *Client) defaultRelay(f frame.Frame) error {
	return c.Send(f)
}

// WriteJSON is a shortcut for OWriteJSON with a single-hop list.
func (c *Client) WriteJSON(addr address.Address, value interface{}, wrapSender bool) error {
	return c.OWriteJSON([]address.Address{addr}, value, wrapSender)
}

// OWriteJSON builds a JSONFrame carrying value, optionally signs it as
// this client, then onion-wraps it once per hop in hoplist: the last hop
// is encrypted innermost (it is the final recipient), the first hop
// outermost (it is who the frame is physically sent to). Each hop must
// have an Identity in the cache to encrypt against.
func (c *Client) OWriteJSON(hoplist []address.Address, value interface{}, wrapSender bool) error {
	if len(hoplist) == 0 {
		return ErrEmptyHopList
	}

	inner, err := frame.MakeJSON(value)
	if err != nil {
		return err
	}

	if wrapSender {
		sender, ok := c.Cache.Get(c.Iface)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoIdentity, c.Iface.Key())
		}
		inner, err = frame.MakeSigned(sender, inner)
		if err != nil {
			return err
		}
	}

	for i := len(hoplist) - 1; i >= 0; i-- {
		hop := hoplist[i]
		hopIdent, ok := c.Cache.Get(hop)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoIdentity, hop.Key())
		}
		inner, err = frame.MakeEncrypted(hopIdent, inner)
		if err != nil {
			return err
		}
	}

	f, err := frame.Create(inner)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// Sign returns the signature over value's canonical-JSON SHA-1 digest,
// made with this client's own Identity.
//
// This is a direct Decrypt of the digest, via the encryptor's Flip, and
// deliberately bypasses Identity.Sign/Encryptor.Sign: those route through
// DefaultSign, which hashes its input with SHA-256 before decrypting, a
// layer that's correct for signing a frame's raw plaintext (see
// frame.MakeSigned) but wrong here, since digest is already a hash.
func (c *Client) Sign(value interface{}) ([]byte, error) {
	ident, ok := c.Cache.Get(c.Iface)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoIdentity, c.Iface.Key())
	}
	digest, err := canon.Checksum(value)
	if err != nil {
		return nil, err
	}
	e, err := ident.Encryptor()
	if err != nil {
		return nil, err
	}
	return crypto.NewFlip(e).Encrypt([]byte(digest))
}

// SigVerify checks sig against value's canonical-JSON SHA-1 digest, using
// the Identity cached for signer. It recovers the digest sig was computed
// over (via the encryptor's Flip, i.e. a plain Encrypt) and compares it to
// the expected digest in constant time; see Sign for why this bypasses
// Identity.VerifySignature/Encryptor.SigVerify.
func (c *Client) SigVerify(value interface{}, signer address.Address, sig []byte) (bool, error) {
	ident, ok := c.Cache.Get(signer)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNoIdentity, signer.Key())
	}
	digest, err := canon.Checksum(value)
	if err != nil {
		return false, err
	}
	e, err := ident.Encryptor()
	if err != nil {
		return false, err
	}
	recovered, err := crypto.NewFlip(e).Decrypt(sig)
	if err != nil {
		return false, nil
	}
	return crypto.HMACEqual(recovered, []byte(digest)), nil
}

// EncryptorSet installs proto as the encryptor for addr: if an Identity
// is already cached there, its encryptor is replaced in place; otherwise
// a new, unnamed Identity is inserted.
func (c *Client) EncryptorSet(addr address.Address, proto crypto.Prototype) error {
	if ident, ok := c.Cache.Get(addr); ok {
		e, err := crypto.Make(proto)
		if err != nil {
			return err
		}
		ident.SetEncryptor(e)
		return nil
	}
	c.Cache.Put(identity.New("", proto, addr))
	return nil
}

// Route is the router's entry point for frames addressed to this client.
// A ReceiverCategory frame not addressed here is handed to Relay instead
// of being unwrapped. Anything addressed here is unwrapped one layer and
// reprocessed; once unwrapping bottoms out at a plain value, it is
// delivered through Callback under a panic guard, so a misbehaving
// callback can't take down the router goroutine that called Route.
func (c *Client) Route(f frame.Frame) error {
	switch rc := f.(type) {
	case frame.ReceiverCategory:
		if !rc.CategoryAddress().Equal(c.Iface) {
			return c.Relay(f)
		}
	case frame.SenderCategory:
		// Fall through: sender-attributed frames (e.g. SignedFrame) are
		// always unwrapped, regardless of which client received them.
	case *frame.JSONFrame:
		// Fall through: a bare JSON value bottoms out the unwrap chain.
	default:
		return frame.ErrUnexpectedFrame
	}

	v, err := f.Unpack(c.Cache)
	if err != nil {
		return err
	}
	return c.reprocess(f, v)
}

func (c *Client) reprocess(f frame.Frame, v interface{}) error {
	if nested, ok := v.(frame.Frame); ok {
		return c.Route(nested)
	}
	sender, _ := f.Sender()
	c.deliver(v, sender)
	return nil
}

func (c *Client) deliver(value interface{}, sender address.Address) {
	defer func() {
		if rec := recover(); rec != nil && c.log != nil {
			c.log.Warnf("recovered panic in receive callback: %v", rec)
		}
	}()
	if c.Callback != nil {
		c.Callback(c, value, sender)
		return
	}
	if c.log != nil {
		c.log.Infof("received %v from %s with no callback set", value, sender.Key())
	}
}
