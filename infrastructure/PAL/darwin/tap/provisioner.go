//go:build darwin

package tap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	application "ethertap/application/network/tap"
	"ethertap/infrastructure/PAL/darwin/ifconfig"
	"ethertap/infrastructure/PAL/exec_commander"
	"ethertap/infrastructure/lock"

	"github.com/songgao/water"
)

type Options struct {
	// KextPath is loaded when no /dev/tap node exists yet.
	KextPath string
	// MaxDevices bounds the tapN nodes probed for a free one.
	MaxDevices int
}

var provisionMu lock.Mutex

type Provisioner struct {
	commander exec_commander.Commander
	ifconfig  ifconfig.Contract
	options   Options
	open      func(name string) (*water.Interface, error)
	stat      func(name string) (os.FileInfo, error)
}

func NewProvisioner(commander exec_commander.Commander, ifconfigWrapper ifconfig.Contract, options Options) application.Provisioner {
	if options.MaxDevices <= 0 {
		options.MaxDevices = 16
	}
	return &Provisioner{
		commander: commander,
		ifconfig:  ifconfigWrapper,
		options:   options,
		open:      openTunTapOSX,
		stat:      os.Stat,
	}
}

func openTunTapOSX(name string) (*water.Interface, error) {
	return water.New(water.Config{
		DeviceType: water.TAP,
		PlatformSpecificParams: water.PlatformSpecificParams{
			Name:   name,
			Driver: water.MacOSDriverTunTapOSX,
		},
	})
}

func (p *Provisioner) Provision(cfg application.Config) (application.Driver, error) {
	defer lock.Guard(&provisionMu)()

	if err := p.ensureKext(); err != nil {
		return nil, err
	}

	iface, name, err := p.attach(cfg.DeviceName)
	if err != nil {
		return nil, err
	}

	shouldClose := true
	defer func() {
		if shouldClose {
			_ = iface.Close()
		}
	}()

	if err := p.ifconfig.SetLLAddr(name, cfg.MAC); err != nil {
		return nil, err
	}
	if err := p.ifconfig.SetMTU(name, cfg.MTU); err != nil {
		return nil, err
	}
	if err := p.ifconfig.Up(name); err != nil {
		return nil, err
	}

	shouldClose = false
	return &Driver{
		name:     name,
		ifconfig: p.ifconfig,
		open:     p.open,
		held:     iface,
	}, nil
}

func (p *Provisioner) ensureKext() error {
	if _, err := p.stat("/dev/tap0"); err == nil {
		return nil
	}
	if p.options.KextPath == "" {
		return errors.New("tap kernel extension not loaded and no kext path configured")
	}
	if out, err := p.commander.CombinedOutput("kextload", p.options.KextPath); err != nil {
		return fmt.Errorf("failed to load %s: %v (%s)", p.options.KextPath, err, out)
	}
	return nil
}

// attach opens the requested node, or the first free tapN.
func (p *Provisioner) attach(requested string) (*water.Interface, string, error) {
	if strings.HasPrefix(requested, "tap") {
		iface, err := p.open(requested)
		return iface, requested, err
	}
	var errs []error
	for i := 0; i < p.options.MaxDevices; i++ {
		name := fmt.Sprintf("tap%d", i)
		iface, err := p.open(name)
		if err == nil {
			return iface, name, nil
		}
		errs = append(errs, err)
	}
	return nil, "", fmt.Errorf("no free tap device: %w", errors.Join(errs...))
}
