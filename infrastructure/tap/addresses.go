package tap

import (
	"net/netip"
	"slices"

	"ethertap/application/network/tap"
)

// AddIP assigns prefix (address plus netmask) to the device. It returns false
// for invalid or degenerate prefixes (/0, host-only /32 and /128) and when the
// OS refuses. An address already present with another netmask is replaced.
func (t *Tap) AddIP(prefix netip.Prefix) bool {
	if !usablePrefix(prefix) {
		return false
	}
	prefix = netip.PrefixFrom(prefix.Addr().Unmap(), prefix.Bits())

	t.ipMu.Lock()
	defer t.ipMu.Unlock()

	current := t.refreshLocked()
	if slices.Contains(current, prefix) {
		t.persistLocked(current)
		return true
	}
	for _, existing := range current {
		if existing.Addr() == prefix.Addr() {
			if err := t.driver.RemoveAddress(existing); err != nil {
				t.log.Warnf("failed to remove %s before re-adding with a new netmask: %v", existing, err)
			}
		}
	}
	if err := t.driver.AddAddress(prefix); err != nil {
		t.log.Warnf("failed to add address %s: %v", prefix, err)
		t.refreshLocked()
		return false
	}
	t.persistLocked(t.refreshLocked())
	return true
}

// RemoveIP removes prefix if present. Link-local IPv6 addresses stay.
func (t *Tap) RemoveIP(prefix netip.Prefix) bool {
	if !prefix.IsValid() {
		return false
	}
	addr := prefix.Addr().Unmap()
	if addr.Is6() && addr.IsLinkLocalUnicast() {
		return false
	}
	prefix = netip.PrefixFrom(addr, prefix.Bits())

	t.ipMu.Lock()
	defer t.ipMu.Unlock()

	if !slices.Contains(t.refreshLocked(), prefix) {
		return false
	}
	if err := t.driver.RemoveAddress(prefix); err != nil {
		t.log.Warnf("failed to remove address %s: %v", prefix, err)
		return false
	}
	t.persistLocked(t.refreshLocked())
	return true
}

// IPs returns the assigned prefixes, sorted and without duplicates.
func (t *Tap) IPs() []netip.Prefix {
	t.ipMu.Lock()
	defer t.ipMu.Unlock()
	return slices.Clone(t.refreshLocked())
}

// refreshLocked re-reads the OS view; on failure the last good snapshot stays.
func (t *Tap) refreshLocked() []netip.Prefix {
	prefixes, err := t.driver.Addresses()
	if err != nil {
		t.log.Debugf("failed to list addresses: %v", err)
		return t.ips
	}
	t.ips = normalizePrefixes(prefixes)
	return t.ips
}

func (t *Tap) persistLocked(prefixes []netip.Prefix) {
	persister, ok := t.driver.(tap.AddressPersister)
	if !ok {
		return
	}
	if err := persister.PersistAddresses(prefixes); err != nil {
		t.log.Warnf("failed to persist addresses: %v", err)
	}
}

func usablePrefix(prefix netip.Prefix) bool {
	if !prefix.IsValid() {
		return false
	}
	addr := prefix.Addr().Unmap()
	bits := prefix.Bits()
	switch {
	case addr.Is4():
		return bits > 0 && bits < 32
	case addr.Is6():
		return bits > 0 && bits < 128
	default:
		return false
	}
}

func comparePrefixes(a, b netip.Prefix) int {
	if c := a.Addr().Compare(b.Addr()); c != 0 {
		return c
	}
	return a.Bits() - b.Bits()
}

func normalizePrefixes(prefixes []netip.Prefix) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(prefixes))
	for _, p := range prefixes {
		if p.IsValid() {
			out = append(out, netip.PrefixFrom(p.Addr().Unmap(), p.Bits()))
		}
	}
	slices.SortFunc(out, comparePrefixes)
	return slices.Compact(out)
}
