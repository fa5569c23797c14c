package ifconfig

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"ethertap/domain/network/mac"
	"ethertap/infrastructure/PAL/exec_commander"
)

type Wrapper struct {
	commander exec_commander.Commander
}

func NewWrapper(commander exec_commander.Commander) Contract {
	return &Wrapper{commander: commander}
}

// SetLLAddr changes the link-level address.
// Example: ifconfig tap0 lladdr 02:00:00:00:00:01
func (w *Wrapper) SetLLAddr(ifName string, addr mac.MAC) error {
	if out, err := w.commander.CombinedOutput("ifconfig", ifName, "lladdr", addr.String()); err != nil {
		return fmt.Errorf("failed to set lladdr of %s: %v (%s)", ifName, err, out)
	}
	return nil
}

func (w *Wrapper) SetMTU(ifName string, mtu int) error {
	if mtu <= 0 {
		return nil
	}
	if out, err := w.commander.CombinedOutput("ifconfig", ifName, "mtu", strconv.Itoa(mtu)); err != nil {
		return fmt.Errorf("ifconfig set mtu failed: %w; output: %s", err, string(out))
	}
	return nil
}

func (w *Wrapper) Up(ifName string) error {
	if out, err := w.commander.CombinedOutput("ifconfig", ifName, "up"); err != nil {
		return fmt.Errorf("failed to bring %s up: %v (%s)", ifName, err, out)
	}
	return nil
}

// IsUp reads the flags line, e.g.
//
//	tap0: flags=8843<UP,BROADCAST,RUNNING,SIMPLEX,MULTICAST> mtu 2800
func (w *Wrapper) IsUp(ifName string) (bool, error) {
	out, err := w.commander.Output("ifconfig", ifName)
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %v", ifName, err)
	}
	first, _, _ := strings.Cut(string(out), "\n")
	start := strings.IndexByte(first, '<')
	end := strings.IndexByte(first, '>')
	if start < 0 || end < start {
		return false, fmt.Errorf("unexpected ifconfig output for %s: %q", ifName, first)
	}
	for _, flag := range strings.Split(first[start+1:end], ",") {
		if flag == "UP" {
			return true, nil
		}
	}
	return false, nil
}

// AddrAdd adds prefix as an alias so existing addresses stay.
// Example: ifconfig tap0 inet 10.0.1.20 netmask 255.255.255.0 alias
func (w *Wrapper) AddrAdd(ifName string, prefix netip.Prefix) error {
	addr := prefix.Addr().Unmap()
	var args []string
	if addr.Is4() {
		args = []string{ifName, "inet", addr.String(), "netmask", netmask(prefix.Bits()), "alias"}
	} else {
		args = []string{ifName, "inet6", addr.String(), "prefixlen", strconv.Itoa(prefix.Bits()), "alias"}
	}
	if out, err := w.commander.CombinedOutput("ifconfig", args...); err != nil {
		return fmt.Errorf("failed to assign %s to %s: %v (%s)", prefix, ifName, err, out)
	}
	return nil
}

func (w *Wrapper) AddrDel(ifName string, prefix netip.Prefix) error {
	addr := prefix.Addr().Unmap()
	family := "inet6"
	if addr.Is4() {
		family = "inet"
	}
	if out, err := w.commander.CombinedOutput("ifconfig", ifName, family, addr.String(), "-alias"); err != nil {
		return fmt.Errorf("failed to remove %s from %s: %v (%s)", prefix, ifName, err, out)
	}
	return nil
}

// Addrs parses inet and inet6 lines, e.g.
//
//	inet 10.0.1.20 netmask 0xffffff00 broadcast 10.0.1.255
//	inet6 fe80::1%tap0 prefixlen 64 scopeid 0x5
func (w *Wrapper) Addrs(ifName string) ([]netip.Prefix, error) {
	out, err := w.commander.Output("ifconfig", ifName)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %v", ifName, err)
	}

	var prefixes []netip.Prefix
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		switch fields[0] {
		case "inet":
			addr, err := netip.ParseAddr(fields[1])
			if err != nil || fields[2] != "netmask" {
				continue
			}
			bits, ok := hexMaskBits(fields[3])
			if !ok {
				continue
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, bits))
		case "inet6":
			host, _, _ := strings.Cut(fields[1], "%")
			addr, err := netip.ParseAddr(host)
			if err != nil || fields[2] != "prefixlen" {
				continue
			}
			bits, err := strconv.Atoi(fields[3])
			if err != nil {
				continue
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, bits))
		}
	}
	return prefixes, nil
}

func netmask(bits int) string {
	mask := net.CIDRMask(bits, 32)
	return fmt.Sprintf("%d.%d.%d.%d", mask[0], mask[1], mask[2], mask[3])
}

func hexMaskBits(s string) (int, bool) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		return 0, false
	}
	ones, bits := net.IPMask{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}.Size()
	if bits == 0 {
		return 0, false
	}
	return ones, true
}
