package ip

import (
	"fmt"
	"strings"

	"ethertap/infrastructure/PAL/exec_commander"
)

// Wrapper is a wrapper around ip command from the iproute2 tool collection
type Wrapper struct {
	commander exec_commander.Commander
}

func NewWrapper(commander exec_commander.Commander) Contract {
	return &Wrapper{commander: commander}
}

// LinkSetAlias Sets the descriptive alias shown by `ip link`
func (i *Wrapper) LinkSetAlias(devName string, alias string) error {
	output, err := i.commander.CombinedOutput("ip", "link", "set", "dev", devName, "alias", alias)
	if err != nil {
		return fmt.Errorf("failed to set alias of %v: %v, output: %s", devName, err, output)
	}

	return nil
}

// LinkDelete Deletes network device by name
func (i *Wrapper) LinkDelete(devName string) error {
	output, err := i.commander.CombinedOutput("ip", "link", "delete", devName)
	if err != nil {
		return fmt.Errorf("failed to delete interface: %v, output: %s", err, output)
	}

	return nil
}

// AddrAddDev Assigns an address to a network device
func (i *Wrapper) AddrAddDev(devName string, cidr string) error {
	output, err := i.commander.CombinedOutput("ip", "addr", "add", cidr, "dev", devName)
	if err != nil {
		return fmt.Errorf("failed to assign %v to %v: %v, output: %s", cidr, devName, err, output)
	}

	return nil
}

// AddrDelDev Removes an address from a network device
func (i *Wrapper) AddrDelDev(devName string, cidr string) error {
	output, err := i.commander.CombinedOutput("ip", "addr", "del", cidr, "dev", devName)
	if err != nil {
		return fmt.Errorf("failed to remove %v from %v: %v, output: %s", cidr, devName, err, output)
	}

	return nil
}

// AddrShowDev lists addresses from the one-line output format, e.g.
//
//	4: et0    inet 10.0.0.5/24 brd 10.0.0.255 scope global et0\       valid_lft forever
func (i *Wrapper) AddrShowDev(devName string) ([]string, error) {
	output, err := i.commander.Output("ip", "-o", "addr", "show", "dev", devName)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses of %s: %v", devName, err)
	}

	var addrs []string
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		if fields[2] != "inet" && fields[2] != "inet6" {
			continue
		}
		addrs = append(addrs, fields[3])
	}
	return addrs, nil
}
