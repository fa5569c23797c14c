//go:build darwin

package tap

import (
	"net/netip"
	"sync"

	application "ethertap/application/network/tap"
	"ethertap/domain/network/mac"
	"ethertap/infrastructure/PAL/darwin/ifconfig"

	"github.com/songgao/water"
)

// Driver controls one tuntaposx interface. The node opened while provisioning
// is handed out by the first Open; later opens reopen the node by name.
type Driver struct {
	name     string
	ifconfig ifconfig.Contract
	open     func(name string) (*water.Interface, error)

	mu       sync.Mutex
	held     *water.Interface
	released bool
}

func (d *Driver) Open() (application.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, application.ErrClosed
	}
	if d.held != nil {
		iface := d.held
		d.held = nil
		return iface, nil
	}
	return d.open(d.name)
}

func (d *Driver) LinkUp() (bool, error) {
	return d.ifconfig.IsUp(d.name)
}

func (d *Driver) DeviceName() string {
	return d.name
}

// SetFriendlyName is a no-op; BSD interfaces carry no label.
func (d *Driver) SetFriendlyName(string) error {
	return nil
}

func (d *Driver) AddAddress(prefix netip.Prefix) error {
	return d.ifconfig.AddrAdd(d.name, prefix)
}

func (d *Driver) RemoveAddress(prefix netip.Prefix) error {
	return d.ifconfig.AddrDel(d.name, prefix)
}

func (d *Driver) Addresses() ([]netip.Prefix, error) {
	return d.ifconfig.Addrs(d.name)
}

func (d *Driver) MulticastMACs() ([]mac.MAC, error) {
	return linkMulticastMACs(d.name)
}

func (d *Driver) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	d.released = true
	if d.held != nil {
		err := d.held.Close()
		d.held = nil
		return err
	}
	return nil
}

// Destroy is Release: tuntaposx nodes are static and nothing is persisted.
func (d *Driver) Destroy() error {
	return d.Release()
}
