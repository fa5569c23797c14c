package tap

import (
	"errors"
	"io"
	"net/netip"
	"slices"
	"sync"
	"testing"
	"time"

	"ethertap/application/network/tap"
	"ethertap/domain/network/mac"
)

// fakeHandle is an in-memory device: inbound frames are pushed by the test,
// outbound writes are recorded.
type fakeHandle struct {
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	writes [][]byte
	// gate, if set, blocks every Write until a value is received.
	gate    chan struct{}
	writing chan struct{}
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		in:      make(chan []byte, 16),
		closed:  make(chan struct{}),
		writing: make(chan struct{}, 16),
	}
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
	select {
	case h.writing <- struct{}{}:
	default:
	}
	if h.gate != nil {
		select {
		case <-h.gate:
		case <-h.closed:
			return 0, io.ErrClosedPipe
		}
	}
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
	mu          sync.Mutex
	name        string
	handles     []*fakeHandle
	newHandle   func() *fakeHandle
	openFails   int
	opens       int
	linkUp      bool
	addrs       []netip.Prefix
	addErr      error
	macs        []mac.MAC
	friendly    string
	persisted   [][]netip.Prefix
	released    int
	destroyed   int
	log         []string
	handleReady chan *fakeHandle
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		name:        "et0",
		linkUp:      true,
		newHandle:   newFakeHandle,
		handleReady: make(chan *fakeHandle, 8),
	}
}

func (d *fakeDriver) Open() (tap.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.openFails > 0 {
		d.openFails--
		return nil, errors.New("device busy")
	}
	h := d.newHandle()
	d.handles = append(d.handles, h)
	d.handleReady <- h
	return h, nil
}

func (d *fakeDriver) LinkUp() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.linkUp, nil
}

func (d *fakeDriver) setLinkUp(up bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.linkUp = up
}

func (d *fakeDriver) DeviceName() string { return d.name }

func (d *fakeDriver) SetFriendlyName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.friendly = name
	return nil
}

func (d *fakeDriver) AddAddress(prefix netip.Prefix) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, "add "+prefix.String())
	if d.addErr != nil {
		return d.addErr
	}
	d.addrs = append(d.addrs, prefix)
	return nil
}

func (d *fakeDriver) RemoveAddress(prefix netip.Prefix) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, "del "+prefix.String())
	d.addrs = slices.DeleteFunc(d.addrs, func(p netip.Prefix) bool { return p == prefix })
	return nil
}

func (d *fakeDriver) Addresses() ([]netip.Prefix, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.addrs), nil
}

func (d *fakeDriver) MulticastMACs() ([]mac.MAC, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.macs), nil
}

func (d *fakeDriver) PersistAddresses(prefixes []netip.Prefix) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.persisted = append(d.persisted, slices.Clone(prefixes))
	return nil
}

func (d *fakeDriver) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released++
	return nil
}

func (d *fakeDriver) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed++
	return nil
}

func (d *fakeDriver) opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

type fakeProvisioner struct {
	driver *fakeDriver
	err    error
	calls  int
}

func (p *fakeProvisioner) Provision(cfg tap.Config) (tap.Driver, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
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

func nextHandle(t *testing.T, d *fakeDriver) *fakeHandle {
	t.Helper()
	select {
	case h := <-d.handleReady:
		return h
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device open")
		return nil
	}
}
