package tap

import "time"

// Environment is the host-level configuration shared by every tap the factory
// creates. It is passed in explicitly instead of being discovered lazily.
type Environment struct {
	// QueueDepth bounds each tap's inject queue.
	QueueDepth int
	// HealthInterval is how often a running tap asks the OS whether the link is up.
	HealthInterval time.Duration
	// OpenRetryInterval is the pause between failed device opens.
	OpenRetryInterval time.Duration
	// MulticastInterval is the poll period for multicast membership scans.
	MulticastInterval time.Duration

	// NamePrefix is used to generate device names, e.g. "et" gives et0, et1...
	NamePrefix    string
	TunDevicePath string
	ProcConfDir   string
	DevMcastPath  string

	// KextPath is loaded with kextload before the first macOS tap, if set.
	KextPath string

	// Windows driver selection and device tagging.
	HardwareID          string
	InfPath             string
	TagValueName        string
	ProvisionRetries    int
	ProvisionRetryDelay time.Duration
}

func DefaultEnvironment() Environment {
	return Environment{
		QueueDepth:          256,
		HealthInterval:      2500 * time.Millisecond,
		OpenRetryInterval:   time.Second,
		MulticastInterval:   10 * time.Second,
		NamePrefix:          "et",
		TunDevicePath:       "/dev/net/tun",
		ProcConfDir:         "/proc/sys/net/ipv4/conf",
		DevMcastPath:        "/proc/net/dev_mcast",
		HardwareID:          "zttap300",
		TagValueName:        "_EthertapNetworkId",
		ProvisionRetries:    60,
		ProvisionRetryDelay: time.Second,
	}
}

func (e Environment) withDefaults() Environment {
	d := DefaultEnvironment()
	if e.QueueDepth <= 0 {
		e.QueueDepth = d.QueueDepth
	}
	if e.HealthInterval <= 0 {
		e.HealthInterval = d.HealthInterval
	}
	if e.OpenRetryInterval <= 0 {
		e.OpenRetryInterval = d.OpenRetryInterval
	}
	if e.MulticastInterval <= 0 {
		e.MulticastInterval = d.MulticastInterval
	}
	return e
}
