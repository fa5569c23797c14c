package ifconfig

import (
	"net/netip"

	"ethertap/domain/network/mac"
)

type Contract interface {
	SetLLAddr(ifName string, addr mac.MAC) error
	SetMTU(ifName string, mtu int) error
	Up(ifName string) error
	IsUp(ifName string) (bool, error)
	AddrAdd(ifName string, prefix netip.Prefix) error
	AddrDel(ifName string, prefix netip.Prefix) error
	Addrs(ifName string) ([]netip.Prefix, error)
}
