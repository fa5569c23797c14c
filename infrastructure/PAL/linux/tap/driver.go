//go:build linux

package tap

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"sync"

	application "ethertap/application/network/tap"
	"ethertap/domain/network/mac"
	"ethertap/infrastructure/PAL/linux/ioctl"
	"ethertap/infrastructure/PAL/linux/ip"
	"ethertap/infrastructure/PAL/linux/tap/epoll"
)

// Driver controls one provisioned TAP interface.
type Driver struct {
	name     string
	master   *os.File
	ioctl    ioctl.Contract
	ip       ip.Contract
	options  Options
	openFile func(path string) (*os.File, error)

	releaseOnce sync.Once
	releaseErr  error
}

// Open brings the link up and returns a fresh epoll-backed handle on a
// duplicate of the clone fd. An admin-down link is raised again here so a
// reopen after a failed health check recovers.
func (d *Driver) Open() (application.Handle, error) {
	if d.master == nil {
		return nil, application.ErrClosed
	}
	if err := d.ioctl.SetUp(d.name); err != nil {
		return nil, fmt.Errorf("failed to bring %s up: %w", d.name, err)
	}
	device, err := epoll.NewDevice(d.master)
	if err != nil {
		return nil, fmt.Errorf("failed to open handle for %s: %w", d.name, err)
	}
	return device, nil
}

func (d *Driver) LinkUp() (bool, error) {
	return d.ioctl.IsUp(d.name)
}

func (d *Driver) DeviceName() string {
	return d.name
}

// SetFriendlyName stores name as the interface alias.
func (d *Driver) SetFriendlyName(name string) error {
	return d.ip.LinkSetAlias(d.name, name)
}

func (d *Driver) AddAddress(prefix netip.Prefix) error {
	return d.ip.AddrAddDev(d.name, prefix.String())
}

func (d *Driver) RemoveAddress(prefix netip.Prefix) error {
	return d.ip.AddrDelDev(d.name, prefix.String())
}

func (d *Driver) Addresses() ([]netip.Prefix, error) {
	raw, err := d.ip.AddrShowDev(d.name)
	if err != nil {
		return nil, err
	}
	prefixes := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			continue
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}

func (d *Driver) MulticastMACs() ([]mac.MAC, error) {
	f, err := d.openFile(d.options.DevMcastPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", d.options.DevMcastPath, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return parseDevMcast(f, d.name)
}

// Release closes the clone fd, which removes the non-persistent interface.
func (d *Driver) Release() error {
	d.releaseOnce.Do(func() {
		if d.master != nil {
			d.releaseErr = d.master.Close()
		}
	})
	return d.releaseErr
}

// Destroy releases the device and deletes the interface if it outlived its fd.
func (d *Driver) Destroy() error {
	err := d.Release()
	if _, statErr := os.Stat(filepath.Join(d.options.ProcConfDir, d.name)); statErr == nil {
		err = errors.Join(err, d.ip.LinkDelete(d.name))
	}
	return err
}
