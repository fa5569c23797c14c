//go:build windows

package tap

import (
	"errors"
	"fmt"
	"time"

	application "ethertap/application/network/tap"
	"ethertap/infrastructure/PAL/exec_commander"
	"ethertap/infrastructure/PAL/windows/netsh"
	"ethertap/infrastructure/lock"
)

const deviceDescription = "Ethertap Virtual Port"

type Options struct {
	// HardwareID is the ComponentId of the tap driver.
	HardwareID string
	// InfPath is staged with pnputil when the driver is not in the store yet.
	InfPath string
	// TagValueName is the adapter key value holding the owning network id.
	TagValueName        string
	ProvisionRetries    int
	ProvisionRetryDelay time.Duration
}

var provisionMu lock.Mutex

type Provisioner struct {
	commander exec_commander.Commander
	netsh     netsh.Contract
	options   Options
	registry  adapterRegistry
}

func NewProvisioner(commander exec_commander.Commander, netshWrapper netsh.Contract, options Options) application.Provisioner {
	if options.ProvisionRetries <= 0 {
		options.ProvisionRetries = 1
	}
	return &Provisioner{
		commander: commander,
		netsh:     netshWrapper,
		options:   options,
		registry:  adapterRegistry{tagValueName: options.TagValueName},
	}
}

// Provision reuses the adapter tagged with the network id, claims an untagged
// one, or creates a new device. The link settings are written to the adapter
// key and the device is restarted so the driver picks them up.
func (p *Provisioner) Provision(cfg application.Config) (application.Driver, error) {
	defer lock.Guard(&provisionMu)()

	rec, err := p.acquire(cfg.NetworkID.String())
	if err != nil {
		return nil, err
	}
	if err := p.registry.configure(rec, cfg.MAC, cfg.MTU); err != nil {
		return nil, fmt.Errorf("failed to configure adapter %s: %w", rec.NetCfgInstanceID, err)
	}
	if cfg.FriendlyName != "" {
		if err := p.registry.setConnectionName(rec, cfg.FriendlyName); err != nil {
			return nil, err
		}
	}

	_ = setDeviceEnabled(rec.DeviceInstanceID, false)
	if err := setDeviceEnabled(rec.DeviceInstanceID, true); err != nil {
		return nil, err
	}

	state, err := p.waitForAdapter(rec.NetCfgInstanceID)
	if err != nil {
		return nil, err
	}
	if cfg.Metric > 0 {
		if err := p.netsh.SetInterfaceMetric(state.index, cfg.Metric); err != nil {
			return nil, err
		}
	}

	return &Driver{
		rec:        rec,
		registry:   p.registry,
		netsh:      p.netsh,
		setEnabled: setDeviceEnabled,
		open:       openHandle,
	}, nil
}

func (p *Provisioner) acquire(tag string) (adapterRecord, error) {
	if rec, ok, err := p.take(tag); err != nil || ok {
		return rec, err
	}
	if err := p.create(); err != nil {
		return adapterRecord{}, err
	}
	for i := 0; i < p.options.ProvisionRetries; i++ {
		if rec, ok, err := p.take(tag); err != nil || ok {
			return rec, err
		}
		time.Sleep(p.options.ProvisionRetryDelay)
	}
	return adapterRecord{}, fmt.Errorf("created device for %s never appeared in the registry", p.options.HardwareID)
}

// take selects an adapter for tag, tagging it if it was unclaimed.
func (p *Provisioner) take(tag string) (adapterRecord, bool, error) {
	records, err := p.registry.list()
	if err != nil {
		return adapterRecord{}, false, err
	}
	rec, claim, ok := selectAdapter(records, p.options.HardwareID, tag)
	if !ok {
		return adapterRecord{}, false, nil
	}
	if claim {
		if err := p.registry.tag(rec, tag); err != nil {
			return adapterRecord{}, false, fmt.Errorf("failed to tag adapter %s: %w", rec.NetCfgInstanceID, err)
		}
		if err := p.registry.disableDHCP(rec); err != nil {
			return adapterRecord{}, false, err
		}
		rec.Tag = tag
	}
	return rec, true, nil
}

func (p *Provisioner) create() error {
	err := createDevice(p.options.HardwareID, deviceDescription)
	if !errors.Is(err, errDriverNotInstalled) || p.options.InfPath == "" {
		return err
	}
	if output, err := p.commander.CombinedOutput("pnputil", "/add-driver", p.options.InfPath, "/install"); err != nil {
		return fmt.Errorf("failed to install driver %s: %v, output: %s", p.options.InfPath, err, output)
	}
	return createDevice(p.options.HardwareID, deviceDescription)
}

func (p *Provisioner) waitForAdapter(netCfgInstanceID string) (adapterState, error) {
	var err error
	for i := 0; i < p.options.ProvisionRetries; i++ {
		var state adapterState
		if state, err = lookupAdapter(netCfgInstanceID); err == nil {
			return state, nil
		}
		time.Sleep(p.options.ProvisionRetryDelay)
	}
	return adapterState{}, fmt.Errorf("adapter %s did not come up: %w", netCfgInstanceID, err)
}
