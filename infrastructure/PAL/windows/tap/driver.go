//go:build windows

package tap

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"sync"

	application "ethertap/application/network/tap"
	"ethertap/domain/network/mac"
	"ethertap/infrastructure/PAL/windows/netsh"
)

// Driver controls one tagged tap adapter.
type Driver struct {
	rec      adapterRecord
	registry adapterRegistry
	netsh    netsh.Contract

	// setEnabled and open default to SetupAPI and the .tap control device.
	setEnabled func(instanceID string, enabled bool) error
	open       func(netCfgInstanceID string) (*Handle, error)

	mu       sync.Mutex
	current  *Handle
	released bool
}

// Open cycles the device off and on, opens the control device and marks the
// media connected. The cycle brings an adapter that stopped passing traffic
// after sleep or reconfiguration back to a working state.
func (d *Driver) Open() (application.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, application.ErrClosed
	}
	_ = d.setEnabled(d.rec.DeviceInstanceID, false)
	if err := d.setEnabled(d.rec.DeviceInstanceID, true); err != nil {
		return nil, fmt.Errorf("failed to enable %s: %w", d.rec.NetCfgInstanceID, err)
	}
	h, err := d.open(d.rec.NetCfgInstanceID)
	if err != nil {
		return nil, err
	}
	if err := h.setMediaStatus(true); err != nil {
		_ = h.Close()
		return nil, err
	}
	d.current = h
	return h, nil
}

func (d *Driver) LinkUp() (bool, error) {
	state, err := lookupAdapter(d.rec.NetCfgInstanceID)
	if errors.Is(err, errAdapterNotFound) {
		return false, nil
	}
	return state.up, err
}

// DeviceName is the adapter's NetCfgInstanceId.
func (d *Driver) DeviceName() string {
	return d.rec.NetCfgInstanceID
}

func (d *Driver) SetFriendlyName(name string) error {
	return d.registry.setConnectionName(d.rec, name)
}

func (d *Driver) AddAddress(prefix netip.Prefix) error {
	state, err := lookupAdapter(d.rec.NetCfgInstanceID)
	if err != nil {
		return err
	}
	return d.netsh.InterfaceAddressAdd(state.index, prefix)
}

func (d *Driver) RemoveAddress(prefix netip.Prefix) error {
	state, err := lookupAdapter(d.rec.NetCfgInstanceID)
	if err != nil {
		return err
	}
	return d.netsh.InterfaceAddressDelete(state.index, prefix)
}

func (d *Driver) Addresses() ([]netip.Prefix, error) {
	state, err := lookupAdapter(d.rec.NetCfgInstanceID)
	if err != nil {
		return nil, err
	}
	return state.prefixes, nil
}

// MulticastMACs asks the driver through the most recently opened handle.
func (d *Driver) MulticastMACs() ([]mac.MAC, error) {
	d.mu.Lock()
	h := d.current
	d.mu.Unlock()
	if h == nil {
		return nil, nil
	}
	macs, err := h.multicastMemberships()
	if errors.Is(err, io.ErrClosedPipe) {
		return nil, nil
	}
	return macs, err
}

// PersistAddresses mirrors the IPv4 addresses into the Tcpip interface key.
func (d *Driver) PersistAddresses(prefixes []netip.Prefix) error {
	ips, masks := ipv4RegistryValues(prefixes)
	return d.registry.persistIPv4(d.rec, ips, masks)
}

// Release disables the device; the tag stays so the next run reuses it.
func (d *Driver) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	d.released = true
	d.current = nil
	return d.setEnabled(d.rec.DeviceInstanceID, false)
}

// Destroy releases the device, drops the tag and removes it from the system.
// The tag is cleared first so a device that survives removal is free again.
func (d *Driver) Destroy() error {
	return errors.Join(
		d.Release(),
		d.registry.untag(d.rec),
		removeDevice(d.rec.DeviceInstanceID),
	)
}
