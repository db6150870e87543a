package jack

import (
	"sync"
	"time"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/frame"
	"github.com/pion/transport/v3/test"
)

// LocalJack is one end of an in-memory, point-to-point "local" jack: no
// socket, no dialing, just a Connection running over a pion test.Bridge
// in-memory net.Conn pair. Unlike udp/tcp, there is no single-ended
// factory for it — Make returns nil for "local" (there is nothing to
// listen on), and a caller that wants two local endpoints wired together
// builds them with NewLocalPair.
type LocalJack struct {
	iface address.Address
	conn  *Connection
	pump  *bridgePump

	closeOnce sync.Once
}

// NewLocalPair wires two endpoints together over an in-memory bridge: a
// frame routed out of jackA's Route arrives at routerB.Recv, and vice
// versa. Each side reuses the same length-prefixed stream reframing a
// TCPJack's Connection uses, just without a real socket underneath.
func NewLocalPair(ifaceA address.Address, routerA Router, ifaceB address.Address, routerB Router) (*LocalJack, *LocalJack) {
	pump := newBridgePump()

	connA := newConnection(pump.bridge.GetConn0(), ifaceA, ifaceB, routerA, nil)
	connB := newConnection(pump.bridge.GetConn1(), ifaceB, ifaceA, routerB, nil)

	a := &LocalJack{iface: ifaceA, conn: connA, pump: pump}
	b := &LocalJack{iface: ifaceB, conn: connB, pump: pump}
	return a, b
}

func (j *LocalJack) Interface() address.Address { return j.iface }

// Route ignores f's destination address: a LocalJack has exactly one
// peer, wired at construction time, so there's nothing to look up.
func (j *LocalJack) Route(f frame.Frame) error {
	return j.conn.Send(f.Content())
}

func (j *LocalJack) Close() error {
	j.closeOnce.Do(func() {
		j.conn.Close()
		j.pump.release()
	})
	return nil
}

// bridgePump ticks a pion test.Bridge forward on a timer so writes on one
// in-memory conn are delivered to its peer without either LocalJack
// managing the bridge's plumbing directly. Shared by both ends of a pair;
// released once both have closed.
type bridgePump struct {
	bridge *test.Bridge
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	holders int
}

func newBridgePump() *bridgePump {
	p := &bridgePump{
		bridge:  test.NewBridge(),
		stopCh:  make(chan struct{}),
		holders: 2,
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *bridgePump) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.bridge.Tick()
		}
	}
}

// release decrements the pump's holder count, stopping the tick loop once
// both LocalJack ends sharing it have closed.
func (p *bridgePump) release() {
	p.mu.Lock()
	p.holders--
	stop := p.holders <= 0
	p.mu.Unlock()
	if stop {
		close(p.stopCh)
		p.wg.Wait()
	}
}
