package bridge

import (
	"net/netip"
	"slices"

	"ethertap/application/logging"
	"ethertap/infrastructure/resolver"
	"ethertap/infrastructure/settings"
)

type dynamicPeer struct {
	resolver *resolver.BackgroundResolver
	port     uint16
}

// PeerSet is where outbound frames go: literal addresses plus whatever the
// background resolvers currently hold for named peers.
type PeerSet struct {
	static  []netip.AddrPort
	dynamic []dynamicPeer
}

// NewPeerSet splits peers into literal and named ones. Extra hostnames are
// treated as named peers on the default port.
func NewPeerSet(peers []settings.Peer, hostnames []string, lookup resolver.Lookup, log logging.Logger) *PeerSet {
	set := &PeerSet{}
	for _, peer := range peers {
		if addr, ok := peer.AddrPort(); ok {
			set.static = append(set.static, addr)
			continue
		}
		if domain, ok := peer.Host.Domain(); ok {
			set.dynamic = append(set.dynamic, dynamicPeer{
				resolver: resolver.New(domain, lookup, log),
				port:     peer.Port,
			})
		}
	}
	for _, host := range hostnames {
		set.dynamic = append(set.dynamic, dynamicPeer{
			resolver: resolver.New(host, lookup, log),
			port:     settings.DefaultPeerPort,
		})
	}
	return set
}

func (p *PeerSet) Resolvers() []*resolver.BackgroundResolver {
	out := make([]*resolver.BackgroundResolver, 0, len(p.dynamic))
	for _, d := range p.dynamic {
		out = append(out, d.resolver)
	}
	return out
}

// Addrs returns every known peer address, sorted and without duplicates.
func (p *PeerSet) Addrs() []netip.AddrPort {
	addrs := slices.Clone(p.static)
	for _, d := range p.dynamic {
		for _, ip := range d.resolver.Get() {
			addrs = append(addrs, netip.AddrPortFrom(ip, d.port))
		}
	}
	slices.SortFunc(addrs, func(a, b netip.AddrPort) int { return a.Compare(b) })
	return slices.Compact(addrs)
}
