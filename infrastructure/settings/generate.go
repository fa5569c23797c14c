package settings

import (
	"fmt"
	"io"
	"net/netip"
	"os"

	"ethertap/domain/network/mac"
	"ethertap/domain/network/nwid"

	"gopkg.in/yaml.v3"
)

// Example is Default with a placeholder network filled in.
func Example() Settings {
	s := Default()
	s.Network = Network{
		ID:           nwid.ID(0x8056c2e21c000001),
		MAC:          mac.MustParse("02:56:c2:e2:1c:01"),
		Addresses:    []netip.Prefix{netip.MustParsePrefix("10.147.17.10/24")},
		FriendlyName: "ethertap",
		Peers: []Peer{{
			Host: Host{ip: netip.MustParseAddr("198.51.100.4")},
			Port: DefaultPeerPort,
		}},
	}
	return s
}

// Generate writes s as YAML.
func Generate(w io.Writer, s Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// GenerateFile writes the example configuration to path. An existing file is
// only replaced when force is set.
func GenerateFile(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Generate(f, Example())
}
