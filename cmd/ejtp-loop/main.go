// ejtp-loop is a tiny non-interactive demo: two clients, "alice" and
// "bob", live on separate routers (simulating two separate processes)
// wired together over a single transport, and exchange a JSON message
// back and forth a fixed number of times before exiting.
//
// Usage:
//
//	ejtp-loop [options]
//
// Options:
//
//	-transport local|udp4  transport to wire the two routers over (default: local)
//	-host                  bind host for the udp4 transport (default: 127.0.0.1)
//	-message               payload to send each round (default: "ping")
//	-rounds                number of round trips before exiting (default: 3)
//
// Example:
//
//	ejtp-loop -transport udp4 -rounds 5
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/backkem/ejtp/pkg/client"
	"github.com/backkem/ejtp/pkg/crypto"
	"github.com/backkem/ejtp/pkg/identity"
	"github.com/backkem/ejtp/pkg/jack"
	"github.com/backkem/ejtp/pkg/router"
	"github.com/pion/logging"
)

type options struct {
	transport string
	host      string
	message   string
	rounds    int
}

func parseFlags() options {
	o := options{}
	flag.StringVar(&o.transport, "transport", "local", "transport to wire the two routers over: local or udp4")
	flag.StringVar(&o.host, "host", "127.0.0.1", "bind host for the udp4 transport")
	flag.StringVar(&o.message, "message", "ping", "payload to send each round")
	flag.IntVar(&o.rounds, "rounds", 3, "number of round trips before exiting")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()
	loggerFactory := logging.NewDefaultLoggerFactory()

	cache := identity.NewCache()
	routerA := router.New(cache, loggerFactory)
	routerB := router.New(cache, loggerFactory)

	aliceAddr, bobAddr, closeTransport, err := wire(opts, routerA, routerB, loggerFactory)
	if err != nil {
		log.Fatalf("ejtp-loop: %v", err)
	}
	defer closeTransport()

	cache.Put(identity.New("alice", crypto.Prototype{"rotate", int64(5)}, aliceAddr))
	cache.Put(identity.New("bob", crypto.Prototype{"rotate", int64(9)}, bobAddr))

	alice, err := client.New(routerA, aliceAddr, false, loggerFactory)
	if err != nil {
		log.Fatalf("ejtp-loop: alice: %v", err)
	}
	defer alice.Close()

	bob, err := client.New(routerB, bobAddr, false, loggerFactory)
	if err != nil {
		log.Fatalf("ejtp-loop: bob: %v", err)
	}
	defer bob.Close()

	var wg sync.WaitGroup
	wg.Add(opts.rounds * 2)
	bob.Callback = func(c *client.Client, value interface{}, sender address.Address) {
		fmt.Printf("bob received %v from %s\n", value, sender.Key())
		wg.Done()
		if err := bob.WriteJSON(sender, value, true); err != nil {
			log.Printf("bob: reply: %v", err)
		}
	}
	var sent atomic.Int32
	sent.Store(1)
	alice.Callback = func(c *client.Client, value interface{}, sender address.Address) {
		fmt.Printf("alice received %v from %s\n", value, sender.Key())
		wg.Done()
		if sent.Add(1) <= int32(opts.rounds) {
			if err := alice.WriteJSON(sender, value, true); err != nil {
				log.Printf("alice: resend: %v", err)
			}
		}
	}

	if err := alice.WriteJSON(bobAddr, opts.message, true); err != nil {
		log.Fatalf("ejtp-loop: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Fatalf("ejtp-loop: timed out waiting for %d rounds", opts.rounds)
	}
}

// wire builds alice and bob's addresses and connects routerA and routerB
// over the chosen transport, returning a cleanup func for whatever jack
// or pair it set up.
func wire(opts options, routerA, routerB *router.Router, loggerFactory logging.LoggerFactory) (alice, bob address.Address, cleanup func(), err error) {
	switch opts.transport {
	case "local":
		aliceAddr := address.New("local", nil, "alice")
		bobAddr := address.New("local", nil, "bob")
		a, b := jack.NewLocalPair(aliceAddr, routerA, bobAddr, routerB)
		if err := routerA.LoadJack(a); err != nil {
			a.Close()
			b.Close()
			return address.Address{}, address.Address{}, nil, err
		}
		if err := routerB.LoadJack(b); err != nil {
			a.Close()
			b.Close()
			return address.Address{}, address.Address{}, nil, err
		}
		return aliceAddr, bobAddr, func() { a.Close(); b.Close() }, nil

	case "udp4":
		jackA, err := jack.NewUDPJack(routerA, address.New("udp4", []interface{}{opts.host, int64(0)}, nil), loggerFactory)
		if err != nil {
			return address.Address{}, address.Address{}, nil, fmt.Errorf("bind alice's udp4 socket: %w", err)
		}
		jackB, err := jack.NewUDPJack(routerB, address.New("udp4", []interface{}{opts.host, int64(0)}, nil), loggerFactory)
		if err != nil {
			jackA.Close()
			return address.Address{}, address.Address{}, nil, fmt.Errorf("bind bob's udp4 socket: %w", err)
		}
		if err := routerA.LoadJack(jackA); err != nil {
			jackA.Close()
			jackB.Close()
			return address.Address{}, address.Address{}, nil, err
		}
		if err := routerB.LoadJack(jackB); err != nil {
			jackA.Close()
			jackB.Close()
			return address.Address{}, address.Address{}, nil, err
		}

		portA := jackA.LocalAddr().(*net.UDPAddr).Port
		portB := jackB.LocalAddr().(*net.UDPAddr).Port
		aliceAddr := address.New("udp4", []interface{}{opts.host, int64(portA)}, "alice")
		bobAddr := address.New("udp4", []interface{}{opts.host, int64(portB)}, "bob")
		return aliceAddr, bobAddr, func() { jackA.Close(); jackB.Close() }, nil

	default:
		return address.Address{}, address.Address{}, nil, fmt.Errorf("unknown transport %q", opts.transport)
	}
}
