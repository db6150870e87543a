package jack

import (
	"net"
	"sync"
	"time"

	"github.com/backkem/ejtp/pkg/address"
)

// MaxStreamFrameSize is the ceiling a Connection enforces on a parsed
// stream length prefix. A peer claiming a larger frame is treated as
// misbehaving and its connection is dropped.
const MaxStreamFrameSize = 16 * 1024 * 1024

// Connection is a single peer's stream-transport session: one per
// (jack, remote) pair. It owns the length-prefixed reframing of its
// socket's byte stream via a StreamDecoder, and reports fully
// reassembled frame bytes to the router.
type Connection struct {
	local, remote address.Address
	conn          net.Conn
	router        Router
	decoder       *StreamDecoder

	writeMu   sync.Mutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	onClose   func(remote address.Address)
}

func newConnection(conn net.Conn, local, remote address.Address, router Router, onClose func(address.Address)) *Connection {
	c := &Connection{
		local:   local,
		remote:  remote,
		conn:    conn,
		router:  router,
		stopCh:  make(chan struct{}),
		onClose: onClose,
	}
	c.decoder = NewStreamDecoder(MaxStreamFrameSize, func(data []byte) {
		if c.router != nil {
			c.router.Recv(data)
		}
	})
	c.wg.Add(1)
	go c.readLoop()
	return c
}

// Local returns this connection's local address.
func (c *Connection) Local() address.Address { return c.local }

// Remote returns this connection's peer address.
func (c *Connection) Remote() address.Address { return c.remote }

// Send writes data to the peer, length-prefixed per the stream wire
// format. Concurrent Sends are serialized.
func (c *Connection) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(WrapStream(data))
	return err
}

func (c *Connection) readLoop() {
	defer c.wg.Done()
	defer c.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, err := c.conn.Read(buf)
		if n > 0 {
			if ferr := c.decoder.Feed(buf[:n]); ferr != nil {
				return
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
	}
}

// Close stops the connection's read loop, closes the socket, and
// unregisters the connection from its owning jack. Safe to call more
// than once and safe to call from the read loop itself.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.conn.Close()
		if c.onClose != nil {
			c.onClose(c.remote)
		}
	})
	return nil
}
