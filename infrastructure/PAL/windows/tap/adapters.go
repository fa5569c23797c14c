//go:build windows

package tap

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// adapterState is the IP Helper view of one adapter.
type adapterState struct {
	index        uint32
	friendlyName string
	up           bool
	prefixes     []netip.Prefix
}

var errAdapterNotFound = errors.New("adapter not reported by the IP helper")

func lookupAdapter(netCfgInstanceID string) (adapterState, error) {
	size := uint32(15000)
	var buf []byte
	for {
		buf = make([]byte, size)
		err := windows.GetAdaptersAddresses(windows.AF_UNSPEC,
			windows.GAA_FLAG_SKIP_ANYCAST|windows.GAA_FLAG_SKIP_MULTICAST|windows.GAA_FLAG_SKIP_DNS_SERVER,
			0, (*windows.IpAdapterAddresses)(unsafe.Pointer(&buf[0])), &size)
		if err == nil {
			break
		}
		if !errors.Is(err, windows.ERROR_BUFFER_OVERFLOW) {
			return adapterState{}, fmt.Errorf("GetAdaptersAddresses failed: %w", err)
		}
	}

	for aa := (*windows.IpAdapterAddresses)(unsafe.Pointer(&buf[0])); aa != nil; aa = aa.Next {
		if !strings.EqualFold(windows.BytePtrToString(aa.AdapterName), netCfgInstanceID) {
			continue
		}
		state := adapterState{
			index:        aa.IfIndex,
			friendlyName: windows.UTF16PtrToString(aa.FriendlyName),
			up:           aa.OperStatus == windows.IfOperStatusUp,
		}
		if state.index == 0 {
			state.index = aa.Ipv6IfIndex
		}
		for ua := aa.FirstUnicastAddress; ua != nil; ua = ua.Next {
			addr, ok := netip.AddrFromSlice(ua.Address.IP())
			if !ok {
				continue
			}
			state.prefixes = append(state.prefixes, netip.PrefixFrom(addr.Unmap(), int(ua.OnLinkPrefixLength)))
		}
		return state, nil
	}
	return adapterState{}, errAdapterNotFound
}
