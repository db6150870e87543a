package jack

import (
	"fmt"

	"github.com/backkem/ejtp/pkg/address"
	"github.com/pion/logging"
)

// Make builds the Jack appropriate for iface's transport family. The
// "local" family has no jack at all: local addresses are resolved
// entirely through the router's client table, with nothing put on any
// wire, so Make returns a nil Jack and a nil error for it.
func Make(router Router, iface address.Address, loggerFactory logging.LoggerFactory) (Jack, error) {
	switch iface.AddrType {
	case "udp", "udp4", "udp6":
		return NewUDPJack(router, iface, loggerFactory)
	case "tcp", "tcp4", "tcp6":
		return NewTCPJack(router, iface, loggerFactory)
	case "local":
		return nil, nil
	default:
		return nil, fmt.Errorf("jack: unsupported address type %q", iface.AddrType)
	}
}
