package demarc

import (
	"fmt"
	"net/netip"
)

// Port is an opaque handle for one bound transport.
type Port uint64

const (
	// AnyPort lets Send pick a port for the destination.
	AnyPort Port = 0
	// NullPort means no such port, or that a send failed.
	NullPort Port = ^Port(0)
)

// PortToInt and IntToPort convert ports for storage outside the process.
func PortToInt(p Port) uint64 {
	return uint64(p)
}

func IntToPort(v uint64) Port {
	return Port(v)
}

func (p Port) String() string {
	switch p {
	case AnyPort:
		return "any"
	case NullPort:
		return "null"
	}
	return fmt.Sprintf("%016x", uint64(p))
}

type PortType int

const (
	UDPSocketV4 PortType = iota + 1
	UDPSocketV6
	LocalEthernet
	RelayTunnel
)

func (t PortType) String() string {
	switch t {
	case UDPSocketV4:
		return "udp4"
	case UDPSocketV6:
		return "udp6"
	case LocalEthernet:
		return "ethernet"
	case RelayTunnel:
		return "relay"
	default:
		return "unknown"
	}
}

// FrameInjector accepts whole Ethernet frames, e.g. a tap.
type FrameInjector interface {
	InjectFrame(frame []byte) error
}

// Tunnel carries datagrams to a peer through a relay.
type Tunnel interface {
	Send(to netip.AddrPort, data []byte) error
	Close() error
}

// InboundHandler receives datagrams read from a bound UDP port. data is only
// valid for the duration of the call.
type InboundHandler func(port Port, from netip.AddrPort, data []byte)

// PortInfo describes one bound port.
type PortInfo struct {
	Port  Port
	Type  PortType
	Local netip.AddrPort
}
