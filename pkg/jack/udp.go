package jack

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/frame"
	"github.com/pion/logging"
)

// maxDatagramSize is large enough for any UDP payload a single socket
// can actually receive; a datagram bigger than this would already have
// been rejected by the kernel.
const maxDatagramSize = 65507

// UDPJack is a datagram jack: one socket, no per-peer state. Each
// inbound datagram becomes one router.Recv call; Route sends exactly
// one datagram per frame.
type UDPJack struct {
	router Router
	iface  address.Address
	conn   *net.UDPConn
	log    logging.LeveledLogger

	initDone         gate
	readyToRoute     gate
	closedAndCleaned gate

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewUDPJack binds a UDP socket at iface's (host, port) and starts its
// read loop. iface.AddrType selects the network ("udp", "udp4", "udp6").
func NewUDPJack(router Router, iface address.Address, loggerFactory logging.LoggerFactory) (*UDPJack, error) {
	host, port, err := addrDetailsPair(iface)
	if err != nil {
		return nil, err
	}

	var log logging.LeveledLogger
	if loggerFactory != nil {
		log = loggerFactory.NewLogger("jack-udp")
	}

	network := iface.AddrType
	if network == "" {
		network = "udp4"
	}
	udpAddr, err := net.ResolveUDPAddr(network, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP(network, udpAddr)
	if err != nil {
		return nil, err
	}

	j := &UDPJack{
		router:           router,
		iface:            iface,
		conn:             conn,
		log:              log,
		initDone:         newGate(),
		readyToRoute:     newGate(),
		closedAndCleaned: newGate(),
		stopCh:           make(chan struct{}),
	}
	j.initDone.release()

	j.wg.Add(1)
	go j.readLoop()
	j.readyToRoute.release()

	return j, nil
}

func (j *UDPJack) Interface() address.Address { return j.iface }

// LocalAddr returns the socket's actual bound address, useful when
// iface was built with an ephemeral (0) port.
func (j *UDPJack) LocalAddr() net.Addr { return j.conn.LocalAddr() }

func (j *UDPJack) readLoop() {
	defer j.wg.Done()
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-j.stopCh:
			return
		default:
		}

		j.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := j.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-j.stopCh:
				return
			default:
				if j.log != nil {
					j.log.Warnf("udp read error: %v", err)
				}
				continue
			}
		}
		if n == 0 {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		j.router.Recv(data)
	}
}

// Route sends f to the destination address carried in its header as a
// single UDP datagram.
func (j *UDPJack) Route(f frame.Frame) error {
	j.readyToRoute.wait()

	dest, err := destinationOf(f)
	if err != nil {
		return err
	}
	host, port, err := addrDetailsPair(dest)
	if err != nil {
		return err
	}
	network := dest.AddrType
	if network == "" {
		network = "udp4"
	}
	udpAddr, err := net.ResolveUDPAddr(network, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}

	if len(f.Content()) > maxDatagramSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(f.Content()))
	}

	_, err = j.conn.WriteToUDP(f.Content(), udpAddr)
	return err
}

func (j *UDPJack) Close() error {
	j.closeOnce.Do(func() {
		close(j.stopCh)
		j.conn.SetReadDeadline(time.Now())
		j.conn.Close()
		j.wg.Wait()
		j.closedAndCleaned.release()
	})
	j.closedAndCleaned.wait()
	return nil
}
