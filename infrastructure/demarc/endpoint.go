package demarc

import (
	"net"
	"net/netip"
	"sync"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// endpoint is the transport behind a port: *udpEndpoint, *ethernetEndpoint or
// *relayEndpoint.
type endpoint interface {
	portType() PortType
	close() error
}

const defaultHopLimit = 64

type udpEndpoint struct {
	family PortType
	conn   *net.UDPConn
	v4     *ipv4.PacketConn
	v6     *ipv6.PacketConn

	// mu serializes writes so a hop limit override never leaks into another send.
	mu         sync.Mutex
	defaultHop int
}

func newUDPEndpoint(family PortType, conn *net.UDPConn) *udpEndpoint {
	ep := &udpEndpoint{family: family, conn: conn, defaultHop: defaultHopLimit}
	if family == UDPSocketV4 {
		ep.v4 = ipv4.NewPacketConn(conn)
		if ttl, err := ep.v4.TTL(); err == nil && ttl > 0 {
			ep.defaultHop = ttl
		}
	} else {
		ep.v6 = ipv6.NewPacketConn(conn)
		if hop, err := ep.v6.HopLimit(); err == nil && hop > 0 {
			ep.defaultHop = hop
		}
	}
	return ep
}

func (e *udpEndpoint) portType() PortType { return e.family }

func (e *udpEndpoint) close() error { return e.conn.Close() }

func (e *udpEndpoint) local() netip.AddrPort {
	if a, ok := e.conn.LocalAddr().(*net.UDPAddr); ok {
		return a.AddrPort()
	}
	return netip.AddrPort{}
}

// accepts reports whether dst is reachable through this socket's family.
func (e *udpEndpoint) accepts(dst netip.Addr) bool {
	dst = dst.Unmap()
	if e.family == UDPSocketV4 {
		return dst.Is4()
	}
	return dst.Is6()
}

func (e *udpEndpoint) setHopLimit(hop int) error {
	if e.v4 != nil {
		return e.v4.SetTTL(hop)
	}
	return e.v6.SetHopLimit(hop)
}

// send writes one datagram. A negative hopLimit uses the socket default.
func (e *udpEndpoint) send(to netip.AddrPort, data []byte, hopLimit int) error {
	if !e.accepts(to.Addr()) {
		return &net.AddrError{Err: "address family mismatch", Addr: to.String()}
	}
	if e.family == UDPSocketV4 {
		to = netip.AddrPortFrom(to.Addr().Unmap(), to.Port())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if hopLimit >= 0 && hopLimit != e.defaultHop {
		if err := e.setHopLimit(hopLimit); err != nil {
			return err
		}
		defer func() {
			_ = e.setHopLimit(e.defaultHop)
		}()
	}
	_, err := e.conn.WriteToUDPAddrPort(data, to)
	return err
}

type ethernetEndpoint struct {
	injector FrameInjector
}

func (e *ethernetEndpoint) portType() PortType { return LocalEthernet }

// close is a no-op: the injector belongs to whoever created it.
func (e *ethernetEndpoint) close() error { return nil }

type relayEndpoint struct {
	tunnel Tunnel
}

func (e *relayEndpoint) portType() PortType { return RelayTunnel }

func (e *relayEndpoint) close() error { return e.tunnel.Close() }
