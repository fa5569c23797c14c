package settings

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// DefaultPeerPort is used for peers written without a port.
const DefaultPeerPort = 9993

// Host is a peer address: either a domain name or an IP address.
type Host struct {
	domain string
	ip     netip.Addr
}

// NewHost parses an IP address or a domain name. Empty string returns a zero Host.
func NewHost(raw string) (Host, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Host{}, nil
	}

	if ip, ok := parseHostIP(trimmed); ok {
		return Host{ip: ip}, nil
	}

	domain, ok := normalizeDomain(trimmed)
	if !ok {
		return Host{}, fmt.Errorf("invalid host %q: expected IP address or domain name", raw)
	}
	return Host{domain: domain}, nil
}

func (h Host) String() string {
	if h.domain != "" {
		return h.domain
	}
	if h.ip.IsValid() {
		return h.ip.String()
	}
	return ""
}

func (h Host) IsZero() bool {
	return h.domain == "" && !h.ip.IsValid()
}

func (h Host) IsIP() bool {
	return h.ip.IsValid()
}

func (h Host) IP() (netip.Addr, bool) {
	return h.ip, h.ip.IsValid()
}

func (h Host) Domain() (string, bool) {
	return h.domain, h.domain != ""
}

// Peer is a host and UDP port that bridged frames are sent to.
type Peer struct {
	Host Host
	Port uint16
}

// ParsePeer accepts host, host:port, ip, ip:port and [ipv6]:port.
func ParsePeer(raw string) (Peer, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Peer{}, errors.New("empty peer")
	}

	hostPart, portPart := trimmed, ""
	if h, p, err := net.SplitHostPort(trimmed); err == nil {
		hostPart, portPart = h, p
	}

	host, err := NewHost(hostPart)
	if err != nil {
		return Peer{}, err
	}
	if host.IsZero() {
		return Peer{}, fmt.Errorf("peer %q has no host", raw)
	}

	port := DefaultPeerPort
	if portPart != "" {
		if port, err = strconv.Atoi(portPart); err != nil {
			return Peer{}, fmt.Errorf("invalid port in peer %q", raw)
		}
	}
	if err := validatePort(port); err != nil {
		return Peer{}, err
	}
	return Peer{Host: host, Port: uint16(port)}, nil
}

func (p Peer) String() string {
	return net.JoinHostPort(p.Host.String(), strconv.Itoa(int(p.Port)))
}

// AddrPort returns the endpoint when the host is an IP address.
func (p Peer) AddrPort() (netip.AddrPort, bool) {
	ip, ok := p.Host.IP()
	if !ok {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(ip, p.Port), true
}

func (p Peer) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Peer) UnmarshalText(text []byte) error {
	parsed, err := ParsePeer(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func parseHostIP(raw string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}

func normalizeDomain(raw string) (string, bool) {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" || len(domain) > 253 {
		return "", false
	}
	if strings.ContainsAny(domain, " \t\n\r/:?#[]@\\") {
		return "", false
	}
	labels := strings.Split(domain, ".")
	for _, label := range labels {
		if !isValidDomainLabel(label) {
			return "", false
		}
	}
	return domain, true
}

func isValidDomainLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return false
	}
	return true
}
