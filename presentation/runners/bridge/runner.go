package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"ethertap/application/logging"
	application "ethertap/application/network/tap"
	"ethertap/domain/network/multicast"
	"ethertap/domain/network/nwid"
	"ethertap/infrastructure/demarc"
	"ethertap/infrastructure/lock"
	infraLogging "ethertap/infrastructure/logging"
	"ethertap/infrastructure/resolver"
	"ethertap/infrastructure/tap"

	"golang.org/x/sync/errgroup"
)

// ErrNoPorts is returned when none of the configured UDP ports could be bound.
var ErrNoPorts = errors.New("no udp port could be bound")

// Status is what the dashboard and the devices command show.
type Status struct {
	NetworkID nwid.ID
	Taps      []*tap.Tap
	Ports     []demarc.PortInfo
	Peers     []netip.AddrPort
	Bridge    Stats
}

// Runner opens the tap for the configured network and bridges it to UDP
// peers until its context ends.
type Runner struct {
	deps AppDependencies
	log  logging.Logger

	mu     lock.Mutex
	demarc *demarc.Demarc
	bridge *Bridge
	peers  *PeerSet
	ready  chan struct{}
}

func NewRunner(deps AppDependencies) *Runner {
	log := deps.Logger()
	if log == nil {
		log = infraLogging.NewDiscardLogger()
	}
	return &Runner{
		deps:  deps,
		log:   log.WithField("component", "bridge"),
		ready: make(chan struct{}),
	}
}

// Ready is closed once the tap is open and the ports are bound.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

func (r *Runner) Run(ctx context.Context) (err error) {
	cfg := r.deps.Settings()
	factory := r.deps.Factory()

	peers := NewPeerSet(cfg.Network.Peers, cfg.Resolver.Hostnames, r.deps.Lookup(), r.log)
	var b *Bridge
	d := demarc.New(func(port demarc.Port, from netip.AddrPort, data []byte) {
		b.HandleDatagram(port, from, data)
	}, r.log)
	b = NewBridge(cfg.Network.ID, d, peers, cfg.Demarc.HopLimit, r.log)
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close demarc: %w", closeErr))
		}
	}()

	bound := 0
	for _, port := range cfg.Demarc.UDPPorts {
		if d.BindLocalUDP(port) {
			bound++
		} else {
			r.log.Warnf("failed to bind udp port %d", port)
		}
	}
	if bound == 0 {
		return ErrNoPorts
	}

	t, openErr := factory.Open(application.Config{
		MAC:          cfg.Network.LocalMAC(),
		MTU:          cfg.Tap.MTU,
		Metric:       cfg.Tap.Metric,
		NetworkID:    cfg.Network.ID,
		DeviceName:   cfg.Network.DeviceName,
		FriendlyName: cfg.Network.FriendlyName,
	}, b.HandleFrame)
	if openErr != nil {
		return fmt.Errorf("error opening tap: %w", openErr)
	}
	defer func() {
		if closeErr := factory.Close(t, false); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close tap: %w", closeErr))
		}
	}()

	for _, prefix := range cfg.Network.Addresses {
		if !t.AddIP(prefix) {
			r.log.Warnf("failed to assign %s to %s", prefix, t.DeviceName())
		}
	}
	b.Attach(d.BindLocalEthernet(t))

	release := lock.Guard(&r.mu)
	r.demarc, r.bridge, r.peers = d, b, peers
	release()
	close(r.ready)
	r.log.Infof("bridging network %s on %s via %d udp port(s)", cfg.Network.ID, t.DeviceName(), bound)

	g, gctx := errgroup.WithContext(ctx)
	if resolvers := peers.Resolvers(); len(resolvers) > 0 {
		refresher := resolver.NewRefresher(cfg.Resolver.RefreshInterval, r.onResolved, resolvers...)
		g.Go(func() error {
			refresher.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		tap.WatchMulticast(gctx, t, factory.Environment().MulticastInterval, r.onMulticast)
		return nil
	})
	return g.Wait()
}

// Status is empty until Ready is closed.
func (r *Runner) Status() Status {
	cfg := r.deps.Settings()
	status := Status{NetworkID: cfg.Network.ID, Taps: r.deps.Factory().Taps()}

	release := lock.Guard(&r.mu)
	d, b, peers := r.demarc, r.bridge, r.peers
	release()
	if d != nil {
		status.Ports = d.Ports()
	}
	if b != nil {
		status.Bridge = b.Stats()
	}
	if peers != nil {
		status.Peers = peers.Addrs()
	}
	return status
}

func (r *Runner) onResolved(res *resolver.BackgroundResolver, _ any) {
	addrs := res.Get()
	if len(addrs) == 0 {
		r.log.Warnf("%s did not resolve", res.Host())
		return
	}
	r.log.Debugf("%s resolved to %v", res.Host(), addrs)
}

func (r *Runner) onMulticast(networkID nwid.ID, added, removed []multicast.Group) {
	log := r.log.WithField("nwid", networkID.String())
	for _, g := range added {
		log.Infof("joined multicast group %s", g)
	}
	for _, g := range removed {
		log.Infof("left multicast group %s", g)
	}
}
