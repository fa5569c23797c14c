package netsh

import "net/netip"

type Contract interface {
	InterfaceAddressAdd(ifIndex uint32, prefix netip.Prefix) error
	InterfaceAddressDelete(ifIndex uint32, prefix netip.Prefix) error
	SetInterfaceMetric(ifIndex uint32, metric int) error
}
