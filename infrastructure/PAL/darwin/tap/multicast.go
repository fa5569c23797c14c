//go:build darwin

package tap

import (
	"fmt"
	"net"
	"syscall"

	"ethertap/domain/network/mac"

	"golang.org/x/net/route"
)

// linkMulticastMACs reads the link-layer memberships of ifName from the
// NET_RT_IFLIST2 routing table dump.
func linkMulticastMACs(ifName string) ([]mac.MAC, error) {
	ifi, err := net.InterfaceByName(ifName)
	if err != nil {
		return nil, err
	}
	rib, err := route.FetchRIB(syscall.AF_UNSPEC, route.RIBType(syscall.NET_RT_IFLIST2), ifi.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch multicast table of %s: %w", ifName, err)
	}
	msgs, err := route.ParseRIB(route.RIBType(syscall.NET_RT_IFLIST2), rib)
	if err != nil {
		return nil, fmt.Errorf("failed to parse multicast table of %s: %w", ifName, err)
	}

	var out []mac.MAC
	for _, msg := range msgs {
		m, ok := msg.(*route.InterfaceMulticastAddrMessage)
		if !ok || m.Index != ifi.Index || len(m.Addrs) <= syscall.RTAX_IFA {
			continue
		}
		link, ok := m.Addrs[syscall.RTAX_IFA].(*route.LinkAddr)
		if !ok {
			continue
		}
		if addr, err := mac.FromBytes(link.Addr); err == nil {
			out = append(out, addr)
		}
	}
	return out, nil
}
