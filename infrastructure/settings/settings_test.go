package settings

import (
	"bytes"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ethertap/domain/network/mac"
	"ethertap/domain/network/nwid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log:
  level: debug
tap:
  mtu: 1400
  health_interval: 500ms
demarc:
  udp_ports: [9993, 9994]
  hop_limit: 8
resolver:
  hostnames: [root.example.net]
  refresh_interval: 1m
network:
  network_id: "8056c2e21c000001"
  mac: "02:aa:bb:cc:dd:ee"
  addresses: ["10.147.17.10/24", "fd00::10/88"]
  friendly_name: lab
  peers: ["198.51.100.4", "root.example.net:7000"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ethertap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	s, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, 1400, s.Tap.MTU)
	assert.Equal(t, 500*time.Millisecond, s.Tap.HealthInterval)
	assert.Equal(t, Default().Tap.QueueDepth, s.Tap.QueueDepth)
	assert.Equal(t, []int{9993, 9994}, s.Demarc.UDPPorts)
	assert.Equal(t, 8, s.Demarc.HopLimit)
	assert.Equal(t, []string{"root.example.net"}, s.Resolver.Hostnames)
	assert.Equal(t, time.Minute, s.Resolver.RefreshInterval)

	assert.Equal(t, nwid.ID(0x8056c2e21c000001), s.Network.ID)
	assert.Equal(t, mac.MustParse("02:aa:bb:cc:dd:ee"), s.Network.MAC)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.147.17.10/24"),
		netip.MustParsePrefix("fd00::10/88"),
	}, s.Network.Addresses)
	require.Len(t, s.Network.Peers, 2)
	assert.Equal(t, "198.51.100.4:9993", s.Network.Peers[0].String())
	assert.Equal(t, "root.example.net:7000", s.Network.Peers[1].String())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ETHERTAP_TAP_MTU", "1280")
	t.Setenv("ETHERTAP_NETWORK_FRIENDLY_NAME", "from-env")
	t.Setenv("ETHERTAP_DEMARC_UDP_PORTS", "7000,7001")

	s, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 1280, s.Tap.MTU)
	assert.Equal(t, "from-env", s.Network.FriendlyName)
	assert.Equal(t, []int{7000, 7001}, s.Demarc.UDPPorts)
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	t.Setenv("ETHERTAP_NETWORK_NETWORK_ID", "00000000000000ff")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, nwid.ID(0xff), s.Network.ID)
	assert.Equal(t, Default().Tap.MTU, s.Tap.MTU)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_UnparsableValues(t *testing.T) {
	for name, content := range map[string]string{
		"mac":    "network:\n  network_id: \"01\"\n  mac: \"not-a-mac\"\n",
		"nwid":   "network:\n  network_id: \"xyz\"\n",
		"prefix": "network:\n  network_id: \"01\"\n  addresses: [\"10.0.0.1\"]\n",
		"peer":   "network:\n  network_id: \"01\"\n  peers: [\"bad host\"]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   error
	}{
		{"mtu too large", func(s *Settings) { s.Tap.MTU = 9000 }, ErrInvalidMTU},
		{"mtu too small", func(s *Settings) { s.Tap.MTU = 10 }, ErrInvalidMTU},
		{"port", func(s *Settings) { s.Demarc.UDPPorts = []int{70000} }, ErrInvalidPort},
		{"hop limit", func(s *Settings) { s.Demarc.HopLimit = 300 }, ErrInvalidHopLimit},
		{"hostname", func(s *Settings) { s.Resolver.Hostnames = []string{"bad host"} }, ErrInvalidHostname},
		{"network id", func(s *Settings) { s.Network.ID = 0 }, ErrInvalidNetworkID},
		{"multicast mac", func(s *Settings) { s.Network.MAC = mac.MustParse("01:00:5e:00:00:01") }, ErrInvalidMAC},
		{"default route", func(s *Settings) {
			s.Network.Addresses = []netip.Prefix{netip.MustParsePrefix("0.0.0.0/0")}
		}, ErrInvalidPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Example()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.want)
		})
	}
	assert.NoError(t, Example().Validate())
}

func TestNetwork_LocalMAC(t *testing.T) {
	n := Network{ID: nwid.ID(0x8056c2e21c000001)}
	assert.Equal(t, mac.MustParse("02:e2:1c:00:00:01"), n.LocalMAC())

	n.MAC = mac.MustParse("02:aa:bb:cc:dd:ee")
	assert.Equal(t, n.MAC, n.LocalMAC())
}

func TestGenerateFile_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethertap.yaml")
	require.NoError(t, GenerateFile(path, false))
	require.Error(t, GenerateFile(path, false), "existing file must not be replaced")
	require.NoError(t, GenerateFile(path, true))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Example().Network.ID, s.Network.ID)
	assert.Equal(t, Example().Tap.ProvisionRetryDelay, s.Tap.ProvisionRetryDelay)
	assert.Equal(t, Example().Network.Peers[0].String(), s.Network.Peers[0].String())
}

func TestGenerate_WritesYAMLSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, Default()))
	for _, section := range []string{"log:", "tap:", "demarc:", "resolver:", "network:"} {
		assert.Contains(t, buf.String(), section)
	}
}

func TestTap_Environment(t *testing.T) {
	env := Default().Tap.Environment()
	assert.Equal(t, "et", env.NamePrefix)
	assert.Equal(t, "zttap300", env.HardwareID)
	assert.Equal(t, 256, env.QueueDepth)
}
