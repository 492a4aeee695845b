package routing

import (
	"net"
	"strconv"
)

// Endpoint is the network address a peer can be reached at. It carries no
// transport-specific framing details; those live in the transport package.
type Endpoint struct {
	IP   net.IP
	Port uint16
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP.String(), strconv.Itoa(int(e.Port)))
}

// Equal reports whether two endpoints name the same IP and port.
func (e Endpoint) Equal(o Endpoint) bool {
	return e.IP.Equal(o.IP) && e.Port == o.Port
}
