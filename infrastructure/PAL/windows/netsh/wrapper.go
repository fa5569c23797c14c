package netsh

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"ethertap/infrastructure/PAL/exec_commander"
)

type Wrapper struct {
	commander exec_commander.Commander
}

func NewWrapper(commander exec_commander.Commander) Contract {
	return &Wrapper{commander: commander}
}

// InterfaceAddressAdd adds prefix to the interface with store=active; the
// registry keeps the persistent copy.
func (w *Wrapper) InterfaceAddressAdd(ifIndex uint32, prefix netip.Prefix) error {
	idx := strconv.FormatUint(uint64(ifIndex), 10)
	var args []string
	if prefix.Addr().Is4() {
		mask := net.IP(net.CIDRMask(prefix.Bits(), 32)).String()
		args = []string{"interface", "ipv4", "add", "address",
			"name=" + idx, "address=" + prefix.Addr().String(), "mask=" + mask, "store=active"}
	} else {
		args = []string{"interface", "ipv6", "add", "address",
			"interface=" + idx, "address=" + prefix.String(), "store=active"}
	}
	output, err := w.commander.CombinedOutput("netsh", args...)
	if err != nil {
		return fmt.Errorf("InterfaceAddressAdd error: %v, output: %s", err, output)
	}
	return nil
}

func (w *Wrapper) InterfaceAddressDelete(ifIndex uint32, prefix netip.Prefix) error {
	idx := strconv.FormatUint(uint64(ifIndex), 10)
	var args []string
	if prefix.Addr().Is4() {
		args = []string{"interface", "ipv4", "delete", "address",
			"name=" + idx, "address=" + prefix.Addr().String()}
	} else {
		args = []string{"interface", "ipv6", "delete", "address",
			"interface=" + idx, "address=" + prefix.Addr().String()}
	}
	output, err := w.commander.CombinedOutput("netsh", args...)
	if err != nil {
		return fmt.Errorf("InterfaceAddressDelete error: %v, output: %s", err, output)
	}
	return nil
}

func (w *Wrapper) SetInterfaceMetric(ifIndex uint32, metric int) error {
	output, err := w.commander.CombinedOutput("netsh", "interface", "ipv4", "set", "interface",
		strconv.FormatUint(uint64(ifIndex), 10), "metric="+strconv.Itoa(metric))
	if err != nil {
		return fmt.Errorf("SetInterfaceMetric error: %v, output: %s", err, output)
	}
	return nil
}
