package tap

import (
	"net"
	"net/netip"
	"strings"

	"ethertap/domain/network/mac"
)

const (
	fileDeviceUnknown = 0x22
	methodBuffered    = 0

	ioctlSetMediaStatus           = fileDeviceUnknown<<16 | 6<<2 | methodBuffered
	ioctlGetMulticastMemberships  = fileDeviceUnknown<<16 | 11<<2 | methodBuffered
	multicastMembershipBufferSize = 16384

	// ifTypeEthernetCSMACD is IF_TYPE_ETHERNET_CSMACD.
	ifTypeEthernetCSMACD = 6
)

// devicePath is the NT path of the driver's control device for an adapter.
func devicePath(netCfgInstanceID string) string {
	return `\\.\Global\` + netCfgInstanceID + ".tap"
}

// parseMulticastMemberships decodes the packed 6-byte MACs returned by
// GET_MULTICAST_MEMBERSHIPS. Zero entries and a trailing partial entry are
// skipped.
func parseMulticastMemberships(buf []byte) []mac.MAC {
	var out []mac.MAC
	for i := 0; i+6 <= len(buf); i += 6 {
		m, err := mac.FromBytes(buf[i : i+6])
		if err != nil || m.IsZero() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// adapterRecord is one subkey of the network adapter class key.
type adapterRecord struct {
	Key              string
	ComponentID      string
	Tag              string
	NetCfgInstanceID string
	DeviceInstanceID string
}

// selectAdapter returns the adapter already tagged with tag, or failing that
// the first untagged adapter of the given hardware id. claim reports the
// latter case; the caller must tag it before use.
func selectAdapter(records []adapterRecord, hardwareID, tag string) (rec adapterRecord, claim, ok bool) {
	var free *adapterRecord
	for i := range records {
		r := &records[i]
		if !strings.EqualFold(r.ComponentID, hardwareID) || r.NetCfgInstanceID == "" {
			continue
		}
		if strings.EqualFold(r.Tag, tag) {
			return *r, false, true
		}
		if r.Tag == "" && free == nil {
			free = r
		}
	}
	if free != nil {
		return *free, true, true
	}
	return adapterRecord{}, false, false
}

// ipv4RegistryValues splits the IPv4 prefixes into the parallel IPAddress and
// SubnetMask lists stored under the Tcpip interface key.
func ipv4RegistryValues(prefixes []netip.Prefix) (ips, masks []string) {
	for _, p := range prefixes {
		if !p.Addr().Is4() {
			continue
		}
		ips = append(ips, p.Addr().String())
		masks = append(masks, net.IP(net.CIDRMask(p.Bits(), 32)).String())
	}
	return ips, masks
}
