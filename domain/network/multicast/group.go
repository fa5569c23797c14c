package multicast

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"ethertap/domain/network/mac"
)

// Group is a multicast destination: a MAC plus an additional distinguishing
// integer (ADI) that splits one MAC into several logical channels.
type Group struct {
	MAC mac.MAC
	ADI uint32
}

// Wildcard is the broadcast group every tap implicitly joins.
var Wildcard = Group{MAC: mac.Broadcast, ADI: 0}

func NewGroup(m mac.MAC, adi uint32) Group {
	return Group{MAC: m, ADI: adi}
}

// DeriveForAddressResolution returns the group a node must be subscribed to
// in order to answer address resolution queries for ip.
//
// IPv4 ARP is broadcast on Ethernet, so the ADI carries the address to keep
// the fan-out narrow. IPv6 uses the solicited-node MAC with ADI 0.
func DeriveForAddressResolution(ip netip.Addr) Group {
	ip = ip.Unmap()
	switch {
	case ip.Is4():
		a := ip.As4()
		return Group{MAC: mac.Broadcast, ADI: binary.BigEndian.Uint32(a[:])}
	case ip.Is6():
		a := ip.As16()
		return Group{MAC: mac.MAC{0x33, 0x33, 0xff, a[13], a[14], a[15]}}
	default:
		return Group{}
	}
}

func (g Group) Compare(o Group) int {
	if c := g.MAC.Compare(o.MAC); c != 0 {
		return c
	}
	switch {
	case g.ADI < o.ADI:
		return -1
	case g.ADI > o.ADI:
		return 1
	default:
		return 0
	}
}

func (g Group) Less(o Group) bool {
	return g.Compare(o) < 0
}

func (g Group) String() string {
	return fmt.Sprintf("%s/%x", g.MAC, g.ADI)
}
