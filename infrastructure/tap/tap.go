package tap

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"ethertap/application/logging"
	"ethertap/application/network/tap"
	"ethertap/domain/network/ethernet"
	"ethertap/domain/network/mac"
	"ethertap/domain/network/multicast"
	"ethertap/domain/network/nwid"
	"ethertap/infrastructure/lock"
	infraLogging "ethertap/infrastructure/logging"
	"ethertap/infrastructure/telemetry/trafficstats"
)

// Options tune one tap. Zero values fall back to DefaultEnvironment.
type Options struct {
	QueueDepth        int
	HealthInterval    time.Duration
	OpenRetryInterval time.Duration
	Logger            logging.Logger
	// Traffic receives byte counters; nil disables them.
	Traffic *trafficstats.Collector
}

// Tap is one virtual Ethernet interface bound to one network membership.
//
// A single I/O goroutine owns the raw handle: it opens the device (retrying
// until closed), feeds queued frames to a writer one at a time, watches link
// health and reopens on failure. A reader goroutine delivers inbound frames to
// the FrameHandler.
type Tap struct {
	cfg     tap.Config
	driver  tap.Driver
	handler tap.FrameHandler
	opts    Options
	log     logging.Logger

	enabled atomic.Bool
	state   atomic.Int32
	stats   counters

	inject   chan []byte
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	releaseOnce sync.Once
	releaseErr  error

	ipMu sync.Mutex
	ips  []netip.Prefix

	mcastMu lock.Spin
	groups  multicast.Set
}

// New provisions the OS device and starts the I/O goroutine. It fails with an
// error wrapping tap.ErrDeviceUnavailable when the MTU is out of range or the
// device cannot be provisioned.
func New(cfg tap.Config, provisioner tap.Provisioner, handler tap.FrameHandler, opts Options) (*Tap, error) {
	if cfg.MTU > ethernet.MaxMTU || cfg.MTU < ethernet.MinMTU {
		return nil, fmt.Errorf("%w: mtu %d outside [%d, %d]",
			tap.ErrDeviceUnavailable, cfg.MTU, ethernet.MinMTU, ethernet.MaxMTU)
	}
	if provisioner == nil {
		return nil, fmt.Errorf("%w: no driver for this platform", tap.ErrDeviceUnavailable)
	}

	defaults := DefaultEnvironment()
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = defaults.QueueDepth
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = defaults.HealthInterval
	}
	if opts.OpenRetryInterval <= 0 {
		opts.OpenRetryInterval = defaults.OpenRetryInterval
	}
	if opts.Logger == nil {
		opts.Logger = infraLogging.NewDiscardLogger()
	}

	driver, err := provisioner.Provision(cfg)
	if err != nil {
		if errors.Is(err, tap.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", tap.ErrDeviceUnavailable, err)
	}

	t := &Tap{
		cfg:     cfg,
		driver:  driver,
		handler: handler,
		opts:    opts,
		log: opts.Logger.
			WithField("nwid", cfg.NetworkID.String()).
			WithField("dev", driver.DeviceName()),
		inject: make(chan []byte, opts.QueueDepth),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		groups: multicast.NewSet(multicast.Wildcard),
	}
	t.enabled.Store(true)

	if cfg.FriendlyName != "" {
		if err := driver.SetFriendlyName(cfg.FriendlyName); err != nil {
			t.log.Warnf("failed to set friendly name %q: %v", cfg.FriendlyName, err)
		}
	}

	go t.run()
	return t, nil
}

// Close stops the I/O goroutine, waits for it and releases the device.
// It is idempotent and safe on a partially constructed Tap.
func (t *Tap) Close() error {
	if t == nil {
		return nil
	}
	if t.stop != nil {
		t.stopOnce.Do(func() { close(t.stop) })
	}
	if t.done != nil {
		<-t.done
	}
	t.releaseOnce.Do(func() {
		if t.driver != nil {
			t.releaseErr = t.driver.Release()
		}
	})
	return t.releaseErr
}

func (t *Tap) Config() tap.Config { return t.cfg }
func (t *Tap) NetworkID() nwid.ID { return t.cfg.NetworkID }
func (t *Tap) MAC() mac.MAC       { return t.cfg.MAC }
func (t *Tap) MTU() int           { return t.cfg.MTU }
func (t *Tap) DeviceName() string { return t.driver.DeviceName() }
func (t *Tap) State() State       { return State(t.state.Load()) }
func (t *Tap) Stats() Stats       { return t.stats.snapshot() }

// Traffic is zero when the tap was built without a collector.
func (t *Tap) Traffic() trafficstats.Snapshot {
	return t.opts.Traffic.Snapshot()
}

// SetFriendlyName is best effort; platforms without a label return nil.
func (t *Tap) SetFriendlyName(name string) error {
	return t.driver.SetFriendlyName(name)
}

// SetEnabled gates delivery of inbound frames. Injection is unaffected.
func (t *Tap) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

func (t *Tap) Enabled() bool {
	return t.enabled.Load()
}

// Put queues a frame for presentation to the OS as if it had arrived on the
// wire. When the queue is full Put blocks until there is room or the tap is
// closed. Payloads larger than the MTU are dropped silently.
func (t *Tap) Put(from, to mac.MAC, etherType uint16, payload []byte) error {
	frame, ok := t.frame(from, to, etherType, payload)
	if !ok {
		return nil
	}
	select {
	case <-t.stop:
		return tap.ErrClosed
	default:
	}
	select {
	case t.inject <- frame:
		return nil
	case <-t.stop:
		return tap.ErrClosed
	}
}

// TryPut is Put without blocking; it returns tap.ErrQueueFull instead.
func (t *Tap) TryPut(from, to mac.MAC, etherType uint16, payload []byte) error {
	frame, ok := t.frame(from, to, etherType, payload)
	if !ok {
		return nil
	}
	select {
	case <-t.stop:
		return tap.ErrClosed
	default:
	}
	select {
	case t.inject <- frame:
		return nil
	default:
		return tap.ErrQueueFull
	}
}

// InjectFrame queues a complete Ethernet frame, used when the header was built
// elsewhere (e.g. received from a peer as-is).
func (t *Tap) InjectFrame(frame []byte) error {
	h, payload, err := ethernet.Decode(frame)
	if err != nil {
		t.stats.droppedMalformed.Add(1)
		return err
	}
	if h.VLAN != 0 {
		// the device would see a tagged frame; keep the original bytes.
		// The tag does not count against the MTU.
		if len(payload) > t.cfg.MTU {
			t.stats.droppedOversize.Add(1)
			return nil
		}
		select {
		case t.inject <- append([]byte(nil), frame...):
			return nil
		case <-t.stop:
			return tap.ErrClosed
		}
	}
	return t.Put(h.Src, h.Dst, h.EtherType, payload)
}

func (t *Tap) frame(from, to mac.MAC, etherType uint16, payload []byte) ([]byte, bool) {
	if len(payload) > t.cfg.MTU {
		t.stats.droppedOversize.Add(1)
		return nil, false
	}
	return ethernet.Encode(from, to, etherType, payload), true
}
