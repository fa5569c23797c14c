package settings

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"ethertap/domain/network/ethernet"
	"ethertap/domain/network/mac"
	"ethertap/domain/network/nwid"
	"ethertap/infrastructure/logging"
	"ethertap/infrastructure/tap"
)

var (
	ErrInvalidMTU       = errors.New("invalid mtu")
	ErrInvalidNetworkID = errors.New("invalid network id")
	ErrInvalidMAC       = errors.New("invalid mac address")
	ErrInvalidPrefix    = errors.New("invalid address prefix")
	ErrInvalidPort      = errors.New("invalid udp port")
	ErrInvalidHopLimit  = errors.New("invalid hop limit")
	ErrInvalidHostname  = errors.New("invalid hostname")
)

type Settings struct {
	Log      logging.Config `mapstructure:"log" yaml:"log"`
	Tap      Tap            `mapstructure:"tap" yaml:"tap"`
	Demarc   Demarc         `mapstructure:"demarc" yaml:"demarc"`
	Resolver Resolver       `mapstructure:"resolver" yaml:"resolver"`
	Network  Network        `mapstructure:"network" yaml:"network"`
}

// Tap holds device defaults and the platform environment.
type Tap struct {
	MTU               int           `mapstructure:"mtu" yaml:"mtu"`
	Metric            int           `mapstructure:"metric" yaml:"metric"`
	NamePrefix        string        `mapstructure:"name_prefix" yaml:"name_prefix"`
	QueueDepth        int           `mapstructure:"queue_depth" yaml:"queue_depth"`
	HealthInterval    time.Duration `mapstructure:"health_interval" yaml:"health_interval"`
	MulticastInterval time.Duration `mapstructure:"multicast_interval" yaml:"multicast_interval"`
	OpenRetryInterval time.Duration `mapstructure:"open_retry_interval" yaml:"open_retry_interval"`

	TunDevicePath string `mapstructure:"tun_device_path" yaml:"tun_device_path"`
	ProcConfDir   string `mapstructure:"proc_conf_dir" yaml:"proc_conf_dir"`
	DevMcastPath  string `mapstructure:"dev_mcast_path" yaml:"dev_mcast_path"`
	KextPath      string `mapstructure:"kext_path" yaml:"kext_path"`

	HardwareID          string        `mapstructure:"hardware_id" yaml:"hardware_id"`
	InfPath             string        `mapstructure:"inf_path" yaml:"inf_path"`
	TagValueName        string        `mapstructure:"tag_value_name" yaml:"tag_value_name"`
	ProvisionRetries    int           `mapstructure:"provision_retries" yaml:"provision_retries"`
	ProvisionRetryDelay time.Duration `mapstructure:"provision_retry_delay" yaml:"provision_retry_delay"`
}

// Environment converts the tap section into the factory environment.
func (t Tap) Environment() tap.Environment {
	return tap.Environment{
		QueueDepth:          t.QueueDepth,
		HealthInterval:      t.HealthInterval,
		OpenRetryInterval:   t.OpenRetryInterval,
		MulticastInterval:   t.MulticastInterval,
		NamePrefix:          t.NamePrefix,
		TunDevicePath:       t.TunDevicePath,
		ProcConfDir:         t.ProcConfDir,
		DevMcastPath:        t.DevMcastPath,
		KextPath:            t.KextPath,
		HardwareID:          t.HardwareID,
		InfPath:             t.InfPath,
		TagValueName:        t.TagValueName,
		ProvisionRetries:    t.ProvisionRetries,
		ProvisionRetryDelay: t.ProvisionRetryDelay,
	}
}

type Demarc struct {
	UDPPorts []int `mapstructure:"udp_ports" yaml:"udp_ports"`
	// HopLimit of -1 keeps the platform default.
	HopLimit int `mapstructure:"hop_limit" yaml:"hop_limit"`
}

type Resolver struct {
	Hostnames       []string      `mapstructure:"hostnames" yaml:"hostnames"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
}

// Network is the membership bridged by the run command.
type Network struct {
	ID           nwid.ID        `mapstructure:"network_id" yaml:"network_id"`
	MAC          mac.MAC        `mapstructure:"mac" yaml:"mac"`
	Addresses    []netip.Prefix `mapstructure:"addresses" yaml:"addresses"`
	DeviceName   string         `mapstructure:"device_name" yaml:"device_name"`
	FriendlyName string         `mapstructure:"friendly_name" yaml:"friendly_name"`
	Peers        []Peer         `mapstructure:"peers" yaml:"peers"`
}

// LocalMAC returns the configured MAC, or a locally administered one derived
// from the network id.
func (n Network) LocalMAC() mac.MAC {
	if !n.MAC.IsZero() {
		return n.MAC
	}
	return mac.FromUint64(0x02_00_00_00_00_00 | uint64(n.ID)&0xff_ff_ff_ff_ff)
}

func Default() Settings {
	env := tap.DefaultEnvironment()
	return Settings{
		Log: logging.Config{
			Level:   "info",
			Pattern: logging.DefaultPattern,
			Time:    logging.DefaultTime,
			File: logging.FileConfig{
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     7,
			},
		},
		Tap: Tap{
			MTU:                 2800,
			NamePrefix:          env.NamePrefix,
			QueueDepth:          env.QueueDepth,
			HealthInterval:      env.HealthInterval,
			MulticastInterval:   env.MulticastInterval,
			OpenRetryInterval:   env.OpenRetryInterval,
			TunDevicePath:       env.TunDevicePath,
			ProcConfDir:         env.ProcConfDir,
			DevMcastPath:        env.DevMcastPath,
			KextPath:            env.KextPath,
			HardwareID:          env.HardwareID,
			InfPath:             env.InfPath,
			TagValueName:        env.TagValueName,
			ProvisionRetries:    env.ProvisionRetries,
			ProvisionRetryDelay: env.ProvisionRetryDelay,
		},
		Demarc: Demarc{
			UDPPorts: []int{DefaultPeerPort},
			HopLimit: -1,
		},
		Resolver: Resolver{
			RefreshInterval: 5 * time.Minute,
		},
	}
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if s.Tap.MTU < ethernet.MinMTU || s.Tap.MTU > ethernet.MaxMTU {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidMTU, s.Tap.MTU, ethernet.MinMTU, ethernet.MaxMTU)
	}
	for _, p := range s.Demarc.UDPPorts {
		if p < 0 || p > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPort, p)
		}
	}
	if s.Demarc.HopLimit < -1 || s.Demarc.HopLimit > 255 {
		return fmt.Errorf("%w: %d", ErrInvalidHopLimit, s.Demarc.HopLimit)
	}
	for _, h := range s.Resolver.Hostnames {
		if _, ok := normalizeDomain(h); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidHostname, h)
		}
	}
	return s.Network.Validate()
}

func (n Network) Validate() error {
	if n.ID == 0 {
		return fmt.Errorf("%w: network_id is required", ErrInvalidNetworkID)
	}
	if !n.MAC.IsZero() && (n.MAC.IsMulticast() || n.MAC.IsBroadcast()) {
		return fmt.Errorf("%w: %s is not a unicast address", ErrInvalidMAC, n.MAC)
	}
	for _, p := range n.Addresses {
		if !p.IsValid() || p.Bits() == 0 {
			return fmt.Errorf("%w: %s", ErrInvalidPrefix, p)
		}
	}
	return nil
}
