package demarc

import (
	"errors"
	"net"
	"net/netip"
	"slices"
	"time"

	"ethertap/application/logging"
	"ethertap/infrastructure/lock"
	infraLogging "ethertap/infrastructure/logging"

	"golang.org/x/sync/errgroup"
)

const (
	readBufferSize = 65535

	// Persistent read errors are retried with a doubling delay in this range.
	minReadRetryDelay = 5 * time.Millisecond
	maxReadRetryDelay = 500 * time.Millisecond
)

// Demarc maps ports to the transports bound behind them. One mutex guards the
// whole table; I/O on a transport happens outside it.
type Demarc struct {
	handler InboundHandler
	log     logging.Logger
	listen  func(network string, laddr *net.UDPAddr) (*net.UDPConn, error)
	sleep   func(time.Duration)

	mu     lock.Mutex
	ports  map[Port]endpoint
	udp    map[int][]Port
	next   Port
	closed bool

	readers errgroup.Group
}

// New returns an empty Demarc. handler may be nil if inbound UDP traffic is
// not of interest.
func New(handler InboundHandler, log logging.Logger) *Demarc {
	if log == nil {
		log = infraLogging.NewDiscardLogger()
	}
	return &Demarc{
		handler: handler,
		log:     log,
		listen:  net.ListenUDP,
		sleep:   time.Sleep,
		ports:   make(map[Port]endpoint),
		udp:     make(map[int][]Port),
		next:    AnyPort + 1,
	}
}

func (d *Demarc) Has(port Port) bool {
	defer lock.Guard(&d.mu)()
	_, ok := d.ports[port]
	return ok
}

// Type reports the kind of transport bound to port.
func (d *Demarc) Type(port Port) (PortType, bool) {
	defer lock.Guard(&d.mu)()
	ep, ok := d.ports[port]
	if !ok {
		return 0, false
	}
	return ep.portType(), true
}

// Ports lists every bound port in ascending order.
func (d *Demarc) Ports() []PortInfo {
	defer lock.Guard(&d.mu)()
	out := make([]PortInfo, 0, len(d.ports))
	for p, ep := range d.ports {
		info := PortInfo{Port: p, Type: ep.portType()}
		if u, ok := ep.(*udpEndpoint); ok {
			info.Local = u.local()
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b PortInfo) int {
		switch {
		case a.Port < b.Port:
			return -1
		case a.Port > b.Port:
			return 1
		}
		return 0
	})
	return out
}

// LocalAddr returns the local address of a UDP port.
func (d *Demarc) LocalAddr(port Port) (netip.AddrPort, bool) {
	defer lock.Guard(&d.mu)()
	u, ok := d.ports[port].(*udpEndpoint)
	if !ok {
		return netip.AddrPort{}, false
	}
	return u.local(), true
}

// BindLocalUDP binds an IPv4 and an IPv6 socket on localPort and registers a
// port for each one that succeeded. It succeeds if either family bound and is
// a no-op for a local port that is already bound. Port 0 always binds anew.
func (d *Demarc) BindLocalUDP(localPort int) bool {
	defer lock.Guard(&d.mu)()

	if d.closed {
		return false
	}
	if _, ok := d.udp[localPort]; ok && localPort != 0 {
		return true
	}

	var bound []Port
	for _, family := range []struct {
		network string
		ip      net.IP
		typ     PortType
	}{
		{"udp4", net.IPv4zero, UDPSocketV4},
		{"udp6", net.IPv6unspecified, UDPSocketV6},
	} {
		conn, err := d.listen(family.network, &net.UDPAddr{IP: family.ip, Port: localPort})
		if err != nil {
			d.log.Warnf("failed to bind %s port %d: %v", family.network, localPort, err)
			continue
		}
		ep := newUDPEndpoint(family.typ, conn)
		port := d.registerLocked(ep)
		bound = append(bound, port)
		d.readers.Go(func() error {
			d.readLoop(port, ep)
			return nil
		})
	}
	if len(bound) == 0 {
		return false
	}
	if localPort != 0 {
		d.udp[localPort] = bound
	}
	return true
}

// BindLocalEthernet registers a frame injector, typically a tap.
func (d *Demarc) BindLocalEthernet(injector FrameInjector) Port {
	return d.bind(&ethernetEndpoint{injector: injector})
}

// BindRelayTunnel registers a relay tunnel. The Demarc closes it on Close.
func (d *Demarc) BindRelayTunnel(tunnel Tunnel) Port {
	return d.bind(&relayEndpoint{tunnel: tunnel})
}

func (d *Demarc) bind(ep endpoint) Port {
	defer lock.Guard(&d.mu)()
	if d.closed {
		return NullPort
	}
	return d.registerLocked(ep)
}

func (d *Demarc) registerLocked(ep endpoint) Port {
	p := d.next
	d.next++
	if d.next == NullPort {
		d.next = AnyPort + 1
	}
	d.ports[p] = ep
	return p
}

// Pick returns the lowest UDP port whose family can reach dst, or NullPort.
func (d *Demarc) Pick(dst netip.AddrPort) Port {
	defer lock.Guard(&d.mu)()
	return d.pickLocked(dst)
}

func (d *Demarc) pickLocked(dst netip.AddrPort) Port {
	if !dst.Addr().IsValid() {
		return NullPort
	}
	best := NullPort
	for p, ep := range d.ports {
		u, ok := ep.(*udpEndpoint)
		if !ok || !u.accepts(dst.Addr()) {
			continue
		}
		if p < best {
			best = p
		}
	}
	return best
}

// Send delivers data through from, or through Pick(to) when from is AnyPort or
// unknown. A negative hopLimit keeps the platform default. It returns the port
// used, or NullPort if nothing could carry the data.
func (d *Demarc) Send(from Port, to netip.AddrPort, data []byte, hopLimit int) Port {
	d.mu.Lock()
	ep, ok := d.ports[from]
	if from == AnyPort || !ok {
		from = d.pickLocked(to)
		ep = d.ports[from]
	}
	d.mu.Unlock()

	if from == NullPort || ep == nil {
		return NullPort
	}

	var err error
	switch e := ep.(type) {
	case *udpEndpoint:
		err = e.send(to, data, hopLimit)
	case *ethernetEndpoint:
		err = e.injector.InjectFrame(data)
	case *relayEndpoint:
		err = e.tunnel.Send(to, data)
	default:
		panic("demarc: unknown endpoint type")
	}
	if err != nil {
		d.log.Debugf("send via port %s to %s failed: %v", from, to, err)
		return NullPort
	}
	return from
}

func (d *Demarc) readLoop(port Port, ep *udpEndpoint) {
	d.receive(port, ep.conn.ReadFromUDPAddrPort)
}

// receive delivers datagrams from read until the socket is closed. Failed
// reads back off so a broken socket cannot spin; the first error of a streak
// is logged.
func (d *Demarc) receive(port Port, read func([]byte) (int, netip.AddrPort, error)) {
	buf := make([]byte, readBufferSize)
	delay := time.Duration(0)
	for {
		n, from, err := read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if delay == 0 {
				d.log.Debugf("read on port %s failed: %v", port, err)
				delay = minReadRetryDelay
			} else {
				delay = min(delay*2, maxReadRetryDelay)
			}
			d.sleep(delay)
			continue
		}
		delay = 0
		if d.handler != nil {
			d.handler(port, netip.AddrPortFrom(from.Addr().Unmap(), from.Port()), buf[:n])
		}
	}
}

// Close tears down every port and waits for the UDP readers to stop.
// Frame injectors are left to their owners.
func (d *Demarc) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	endpoints := make([]endpoint, 0, len(d.ports))
	for _, ep := range d.ports {
		endpoints = append(endpoints, ep)
	}
	clear(d.ports)
	clear(d.udp)
	d.mu.Unlock()

	var g errgroup.Group
	for _, ep := range endpoints {
		g.Go(ep.close)
	}
	err := g.Wait()
	_ = d.readers.Wait()
	return err
}
