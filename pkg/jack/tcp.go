package jack

import (
	"net"
	"strconv"
	"sync"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/frame"
	"github.com/pion/logging"
)

// TCPJack is a stream jack: one listening socket, one Connection per
// peer. Route obtains-or-creates an outbound Connection keyed by the
// frame's destination address and hands it the frame's bytes.
type TCPJack struct {
	router   Router
	iface    address.Address
	listener net.Listener
	log      logging.LeveledLogger

	connsMu sync.RWMutex
	conns   map[string]*Connection

	initDone         gate
	readyToRoute     gate
	closedAndCleaned gate

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewTCPJack binds a TCP listener at iface's (host, port) and starts
// accepting connections.
func NewTCPJack(router Router, iface address.Address, loggerFactory logging.LoggerFactory) (*TCPJack, error) {
	host, port, err := addrDetailsPair(iface)
	if err != nil {
		return nil, err
	}

	var log logging.LeveledLogger
	if loggerFactory != nil {
		log = loggerFactory.NewLogger("jack-tcp")
	}

	network := iface.AddrType
	if network == "" {
		network = "tcp4"
	}
	listener, err := net.Listen(network, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	j := &TCPJack{
		router:           router,
		iface:            iface,
		listener:         listener,
		log:              log,
		conns:            make(map[string]*Connection),
		initDone:         newGate(),
		readyToRoute:     newGate(),
		closedAndCleaned: newGate(),
		stopCh:           make(chan struct{}),
	}
	j.initDone.release()

	j.wg.Add(1)
	go j.acceptLoop()
	j.readyToRoute.release()

	return j, nil
}

func (j *TCPJack) Interface() address.Address { return j.iface }

// LocalAddr returns the listener's actual bound address, useful when
// iface was built with an ephemeral (0) port.
func (j *TCPJack) LocalAddr() net.Addr { return j.listener.Addr() }

func (j *TCPJack) acceptLoop() {
	defer j.wg.Done()
	for {
		conn, err := j.listener.Accept()
		if err != nil {
			select {
			case <-j.stopCh:
				return
			default:
				if j.log != nil {
					j.log.Warnf("tcp accept error: %v", err)
				}
				continue
			}
		}

		remote := address.New(j.iface.AddrType, peerDetails(conn.RemoteAddr()), nil)
		c := newConnection(conn, j.iface, remote, j.router, j.removeConnection)
		j.registerConn(remote.Key(), c)
	}
}

// Route obtains (dialing if necessary) the Connection for f's
// destination address and sends f's bytes over it.
func (j *TCPJack) Route(f frame.Frame) error {
	j.readyToRoute.wait()

	dest, err := destinationOf(f)
	if err != nil {
		return err
	}
	c, err := j.ConnectionFor(dest)
	if err != nil {
		return err
	}
	return c.Send(f.Content())
}

func (j *TCPJack) ConnectionFor(dest address.Address) (*Connection, error) {
	key := dest.Key()

	j.connsMu.RLock()
	c, ok := j.conns[key]
	j.connsMu.RUnlock()
	if ok {
		return c, nil
	}

	host, port, err := addrDetailsPair(dest)
	if err != nil {
		return nil, err
	}
	network := dest.AddrType
	if network == "" {
		network = "tcp4"
	}
	conn, err := net.Dial(network, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	j.connsMu.Lock()
	if existing, ok := j.conns[key]; ok {
		j.connsMu.Unlock()
		conn.Close()
		return existing, nil
	}
	nc := newConnection(conn, j.iface, dest, j.router, j.removeConnection)
	j.conns[key] = nc
	j.connsMu.Unlock()

	return nc, nil
}

func (j *TCPJack) registerConn(key string, c *Connection) {
	j.connsMu.Lock()
	j.conns[key] = c
	j.connsMu.Unlock()
}

func (j *TCPJack) removeConnection(remote address.Address) {
	j.connsMu.Lock()
	delete(j.conns, remote.Key())
	j.connsMu.Unlock()
}

func (j *TCPJack) Close() error {
	j.closeOnce.Do(func() {
		close(j.stopCh)
		j.listener.Close()

		j.connsMu.Lock()
		conns := j.conns
		j.conns = make(map[string]*Connection)
		j.connsMu.Unlock()
		for _, c := range conns {
			c.Close()
		}

		j.wg.Wait()
		j.closedAndCleaned.release()
	})
	j.closedAndCleaned.wait()
	return nil
}

// peerDetails converts a dialed/accepted net.Addr into the
// [host, port] structured form an Address carries in AddrDetails.
func peerDetails(addr net.Addr) []interface{} {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return []interface{}{addr.String(), int64(0)}
	}
	port, _ := strconv.Atoi(portStr)
	return []interface{}{host, int64(port)}
}
