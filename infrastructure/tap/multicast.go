package tap

import (
	"context"
	"time"

	"ethertap/domain/network/multicast"
	"ethertap/domain/network/nwid"
	"ethertap/infrastructure/lock"
)

// UpdateMulticastGroups recomputes membership into groups and reports whether
// it changed. The result always contains multicast.Wildcard. The caller owns
// groups; the snapshot ScanMulticastGroups diffs against is left alone.
func (t *Tap) UpdateMulticastGroups(groups *multicast.Set) bool {
	next := t.currentGroups()
	changed := !next.Equal(*groups)
	*groups = next
	return changed
}

// ScanMulticastGroups diffs the current membership against the previous scan.
func (t *Tap) ScanMulticastGroups() (added, removed []multicast.Group) {
	next := t.currentGroups()

	defer lock.Guard(&t.mcastMu)()
	added, removed = next.Diff(t.groups)
	t.groups = next
	return added, removed
}

// MulticastGroups returns the snapshot taken by the last scan.
func (t *Tap) MulticastGroups() multicast.Set {
	defer lock.Guard(&t.mcastMu)()
	return multicast.NewSet(t.groups.Groups()...)
}

func (t *Tap) currentGroups() multicast.Set {
	var next multicast.Set
	macs, err := t.driver.MulticastMACs()
	if err != nil {
		t.log.Debugf("failed to read multicast memberships: %v", err)
	}
	for _, m := range macs {
		if m.IsMulticast() && !m.IsBroadcast() {
			next.Add(multicast.NewGroup(m, 0))
		}
	}
	for _, prefix := range t.IPs() {
		next.Add(multicast.DeriveForAddressResolution(prefix.Addr()))
	}
	next.Add(multicast.Wildcard)
	return next
}

// GroupListener is told about membership changes found by WatchMulticast.
type GroupListener func(networkID nwid.ID, added, removed []multicast.Group)

// WatchMulticast polls t every interval until ctx ends or the tap closes.
// The OS does not push membership changes, so polling is the only option.
func WatchMulticast(ctx context.Context, t *Tap, interval time.Duration, listener GroupListener) {
	if interval <= 0 {
		interval = DefaultEnvironment().MulticastInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	scan := func() {
		added, removed := t.ScanMulticastGroups()
		if len(added) > 0 || len(removed) > 0 {
			listener(t.NetworkID(), added, removed)
		}
	}
	scan()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			scan()
		}
	}
}
