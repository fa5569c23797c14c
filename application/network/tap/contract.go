package tap

import (
	"errors"
	"net/netip"

	"ethertap/domain/network/mac"
	"ethertap/domain/network/nwid"
)

var (
	// ErrDeviceUnavailable is returned when a tap cannot be created or attached:
	// MTU out of range, driver missing, or provisioning exhausted its retries.
	ErrDeviceUnavailable = errors.New("tap device unavailable")
	ErrClosed            = errors.New("tap closed")
	ErrQueueFull         = errors.New("tap inject queue full")
)

// Config describes the virtual interface a network membership needs.
type Config struct {
	MAC       mac.MAC
	MTU       int
	Metric    int
	NetworkID nwid.ID
	// DeviceName is a hint; platforms that allocate names themselves may ignore it.
	DeviceName string
	// FriendlyName is the human readable label where the OS has one.
	FriendlyName string
}

// FrameHandler receives frames read from the OS. It runs on the tap's reader
// goroutine; payload is only valid for the duration of the call. It must not
// call back into the tap that invoked it.
type FrameHandler func(networkID nwid.ID, from, to mac.MAC, etherType, vlan uint16, payload []byte)

// Handle is an opened raw device. Close must unblock a pending Read.
type Handle interface {
	Read(data []byte) (int, error)
	Write(data []byte) (int, error)
	Close() error
}

// Driver is the platform glue behind one provisioned device.
type Driver interface {
	// Open enables the device if needed and returns a fresh raw handle.
	Open() (Handle, error)
	// LinkUp reports the OS view of the adapter state.
	LinkUp() (bool, error)
	DeviceName() string
	SetFriendlyName(name string) error
	AddAddress(prefix netip.Prefix) error
	RemoveAddress(prefix netip.Prefix) error
	Addresses() ([]netip.Prefix, error)
	// MulticastMACs returns the L2 memberships the OS has programmed, if the
	// platform exposes them.
	MulticastMACs() ([]mac.MAC, error)
	// Release gives the device back to the OS when the tap is destroyed.
	Release() error
	// Destroy removes any persistent registration so it is not reused.
	Destroy() error
}

// AddressPersister is implemented by drivers that mirror addresses into
// persisted configuration (e.g. the Windows registry).
type AddressPersister interface {
	PersistAddresses(prefixes []netip.Prefix) error
}

// Provisioner creates or reattaches the OS device for a network.
type Provisioner interface {
	Provision(cfg Config) (Driver, error)
}
