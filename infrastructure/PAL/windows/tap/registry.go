//go:build windows

package tap

import (
	"errors"
	"fmt"
	"strconv"

	"ethertap/domain/network/mac"

	"golang.org/x/sys/windows/registry"
)

const (
	netClassGUIDString = "{4D36E972-E325-11CE-BFC1-08002BE10318}"
	netClassKey        = `SYSTEM\CurrentControlSet\Control\Class\` + netClassGUIDString
	netConnectionKey   = `SYSTEM\CurrentControlSet\Control\Network\` + netClassGUIDString
	tcpipInterfacesKey = `SYSTEM\CurrentControlSet\services\Tcpip\Parameters\Interfaces`
)

// adapterRegistry reads and writes the per-adapter driver keys.
type adapterRegistry struct {
	tagValueName string
}

// list reads every adapter under the network class key. Subkeys that cannot
// be opened, such as Properties, are skipped.
func (r adapterRegistry) list() ([]adapterRecord, error) {
	class, err := registry.OpenKey(registry.LOCAL_MACHINE, netClassKey, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", netClassKey, err)
	}
	defer func() {
		_ = class.Close()
	}()

	names, err := class.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", netClassKey, err)
	}

	records := make([]adapterRecord, 0, len(names))
	for _, name := range names {
		k, err := registry.OpenKey(class, name, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		rec := adapterRecord{Key: name}
		rec.ComponentID, _, _ = k.GetStringValue("ComponentId")
		rec.Tag, _, _ = k.GetStringValue(r.tagValueName)
		rec.NetCfgInstanceID, _, _ = k.GetStringValue("NetCfgInstanceId")
		rec.DeviceInstanceID, _, _ = k.GetStringValue("DeviceInstanceID")
		_ = k.Close()
		records = append(records, rec)
	}
	return records, nil
}

func (r adapterRegistry) open(rec adapterRecord) (registry.Key, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, netClassKey+`\`+rec.Key, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return 0, fmt.Errorf("failed to open adapter key %s: %w", rec.Key, err)
	}
	return k, nil
}

// tag marks rec as belonging to the network with the given tag.
func (r adapterRegistry) tag(rec adapterRecord, tag string) error {
	k, err := r.open(rec)
	if err != nil {
		return err
	}
	defer func() {
		_ = k.Close()
	}()
	return k.SetStringValue(r.tagValueName, tag)
}

func (r adapterRegistry) untag(rec adapterRecord) error {
	k, err := r.open(rec)
	if err != nil {
		return err
	}
	defer func() {
		_ = k.Close()
	}()
	if err := k.DeleteValue(r.tagValueName); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}

// configure writes the link settings the driver reads when it is (re)enabled.
func (r adapterRegistry) configure(rec adapterRecord, addr mac.MAC, mtu int) error {
	k, err := r.open(rec)
	if err != nil {
		return err
	}
	defer func() {
		_ = k.Close()
	}()

	dashed := addr.DashedUpper()
	return errors.Join(
		k.SetStringValue("NetworkAddress", dashed),
		k.SetStringValue("MAC", dashed),
		k.SetStringValue("MTU", strconv.Itoa(mtu)),
		k.SetDWordValue("*NdisDeviceType", 0),
		k.SetDWordValue("*IfType", ifTypeEthernetCSMACD),
		k.SetDWordValue("EnableDHCP", 0),
	)
}

func (r adapterRegistry) tcpipKey(rec adapterRecord) (registry.Key, error) {
	path := tcpipInterfacesKey + `\` + rec.NetCfgInstanceID
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return k, nil
}

// disableDHCP keeps Windows from soliciting a lease on a freshly claimed device.
func (r adapterRegistry) disableDHCP(rec adapterRecord) error {
	k, err := r.tcpipKey(rec)
	if err != nil {
		return err
	}
	defer func() {
		_ = k.Close()
	}()
	return k.SetDWordValue("EnableDHCP", 0)
}

// persistIPv4 stores the static IPv4 configuration applied on the next enable.
func (r adapterRegistry) persistIPv4(rec adapterRecord, ips, masks []string) error {
	k, err := r.tcpipKey(rec)
	if err != nil {
		return err
	}
	defer func() {
		_ = k.Close()
	}()
	if len(ips) == 0 {
		return errors.Join(
			ignoreNotExist(k.DeleteValue("IPAddress")),
			ignoreNotExist(k.DeleteValue("SubnetMask")),
		)
	}
	return errors.Join(
		k.SetStringsValue("IPAddress", ips),
		k.SetStringsValue("SubnetMask", masks),
	)
}

// setConnectionName sets the label shown in the network connections folder.
func (r adapterRegistry) setConnectionName(rec adapterRecord, name string) error {
	path := netConnectionKey + `\` + rec.NetCfgInstanceID + `\Connection`
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = k.Close()
	}()
	return k.SetStringValue("Name", name)
}

func ignoreNotExist(err error) error {
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	return err
}
