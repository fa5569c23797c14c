//go:build linux

package tap

import (
	"os"

	application "ethertap/application/network/tap"
	"ethertap/infrastructure/lock"
	"ethertap/infrastructure/PAL/linux/ioctl"
	"ethertap/infrastructure/PAL/linux/ip"
)

type Options struct {
	// NamePrefix is used when Config.DeviceName is empty.
	NamePrefix   string
	ProcConfDir  string
	DevMcastPath string
}

// provisionMu serializes name selection and creation across all provisioners
// in the process.
var provisionMu lock.Mutex

type Provisioner struct {
	ioctl   ioctl.Contract
	ip      ip.Contract
	options Options
}

func NewProvisioner(ioctlWrapper ioctl.Contract, ipWrapper ip.Contract, options Options) application.Provisioner {
	return &Provisioner{ioctl: ioctlWrapper, ip: ipWrapper, options: options}
}

// Provision creates the interface through /dev/net/tun, applies MAC and MTU and
// brings it up. The returned driver holds the clone fd; the interface lives
// until Release closes it.
func (p *Provisioner) Provision(cfg application.Config) (application.Driver, error) {
	defer lock.Guard(&provisionMu)()

	name := cfg.DeviceName
	if name == "" {
		var err error
		if name, err = nextFreeName(p.options.NamePrefix, p.options.ProcConfDir); err != nil {
			return nil, err
		}
	}

	master, actual, err := p.ioctl.CreateTapInterface(name)
	if err != nil {
		return nil, err
	}

	shouldClose := true
	defer func() {
		if shouldClose {
			_ = master.Close()
		}
	}()

	if err := p.ioctl.SetHwAddr(actual, cfg.MAC); err != nil {
		return nil, err
	}
	if err := p.ioctl.SetMTU(actual, cfg.MTU); err != nil {
		return nil, err
	}
	if err := p.ioctl.SetUp(actual); err != nil {
		return nil, err
	}

	shouldClose = false
	return &Driver{
		name:     actual,
		master:   master,
		ioctl:    p.ioctl,
		ip:       p.ip,
		options:  p.options,
		openFile: func(path string) (*os.File, error) { return os.Open(path) },
	}, nil
}
