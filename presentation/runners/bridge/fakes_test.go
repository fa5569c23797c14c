package bridge

import (
	"io"
	"net/netip"
	"slices"
	"sync"
	"testing"
	"time"

	application "ethertap/application/network/tap"
	"ethertap/domain/network/mac"
)

type fakeHandle struct {
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	writes [][]byte
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{in: make(chan []byte, 16), closed: make(chan struct{})}
}

func (h *fakeHandle) Read(p []byte) (int, error) {
	select {
	case frame := <-h.in:
		return copy(p, frame), nil
	case <-h.closed:
		return 0, io.ErrClosedPipe
	}
}

func (h *fakeHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes = append(h.writes, slices.Clone(p))
	return len(p), nil
}

func (h *fakeHandle) Close() error {
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

func (h *fakeHandle) Writes() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.writes)
}

type fakeDriver struct {
	handle *fakeHandle

	mu       sync.Mutex
	addrs    []netip.Prefix
	released bool
}

func (d *fakeDriver) Open() (application.Handle, error) { return d.handle, nil }
func (d *fakeDriver) LinkUp() (bool, error)             { return true, nil }
func (d *fakeDriver) DeviceName() string                { return "et0" }
func (d *fakeDriver) SetFriendlyName(string) error      { return nil }
func (d *fakeDriver) MulticastMACs() ([]mac.MAC, error) { return nil, nil }
func (d *fakeDriver) Destroy() error                    { return nil }

func (d *fakeDriver) AddAddress(prefix netip.Prefix) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addrs = append(d.addrs, prefix)
	return nil
}

func (d *fakeDriver) RemoveAddress(prefix netip.Prefix) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addrs = slices.DeleteFunc(d.addrs, func(p netip.Prefix) bool { return p == prefix })
	return nil
}

func (d *fakeDriver) Addresses() ([]netip.Prefix, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.addrs), nil
}

func (d *fakeDriver) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	return nil
}

func (d *fakeDriver) isReleased() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

type fakeProvisioner struct {
	driver *fakeDriver
	cfg    application.Config
}

func (p *fakeProvisioner) Provision(cfg application.Config) (application.Driver, error) {
	p.cfg = cfg
	return p.driver, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
