//go:build windows

package tap

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var netClassGUID = windows.GUID{
	Data1: 0x4d36e972,
	Data2: 0xe325,
	Data3: 0x11ce,
	Data4: [8]byte{0xbf, 0xc1, 0x08, 0x00, 0x2b, 0xe1, 0x03, 0x18},
}

var errDriverNotInstalled = errors.New("no installed driver matches the hardware id")

// createDevice registers a new root-enumerated device for hardwareID and
// installs the matching driver from the driver store.
func createDevice(hardwareID, description string) (err error) {
	devInfo, err := windows.SetupDiCreateDeviceInfoListEx(&netClassGUID, 0, "")
	if err != nil {
		return fmt.Errorf("SetupDiCreateDeviceInfoListEx failed: %w", err)
	}
	defer func() {
		_ = devInfo.Close()
	}()

	className, err := windows.SetupDiClassNameFromGuidEx(&netClassGUID, "")
	if err != nil {
		return fmt.Errorf("SetupDiClassNameFromGuidEx failed: %w", err)
	}
	data, err := devInfo.CreateDeviceInfo(className, &netClassGUID, description, 0, windows.DICD_GENERATE_ID)
	if err != nil {
		return fmt.Errorf("SetupDiCreateDeviceInfo failed: %w", err)
	}
	if err := devInfo.SetDeviceRegistryProperty(data, windows.SPDRP_HARDWAREID, multiSZ(hardwareID)); err != nil {
		return fmt.Errorf("failed to set hardware id: %w", err)
	}
	if err := selectDriver(devInfo, data, hardwareID); err != nil {
		return err
	}

	if err := devInfo.CallClassInstaller(windows.DIF_REGISTERDEVICE, data); err != nil {
		return fmt.Errorf("DIF_REGISTERDEVICE failed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = devInfo.CallClassInstaller(windows.DIF_REMOVE, data)
		}
	}()

	for _, fn := range []windows.DI_FUNCTION{
		windows.DIF_REGISTER_COINSTALLERS,
		windows.DIF_INSTALLINTERFACES,
		windows.DIF_INSTALLDEVICE,
	} {
		if err := devInfo.CallClassInstaller(fn, data); err != nil {
			return fmt.Errorf("class installer function %d failed: %w", fn, err)
		}
	}
	return nil
}

func selectDriver(devInfo windows.DevInfo, data *windows.DevInfoData, hardwareID string) error {
	if err := devInfo.BuildDriverInfoList(data, windows.SPDIT_COMPATDRIVER); err != nil {
		return fmt.Errorf("SetupDiBuildDriverInfoList failed: %w", err)
	}
	defer func() {
		_ = devInfo.DestroyDriverInfoList(data, windows.SPDIT_COMPATDRIVER)
	}()

	for i := 0; ; i++ {
		drv, err := devInfo.EnumDriverInfo(data, windows.SPDIT_COMPATDRIVER, i)
		if errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
			return errDriverNotInstalled
		}
		if err != nil {
			continue
		}
		detail, err := devInfo.DriverInfoDetail(data, drv)
		if err != nil || !detail.IsCompatible(hardwareID) {
			continue
		}
		if err := devInfo.SetSelectedDriver(data, drv); err != nil {
			return fmt.Errorf("SetupDiSetSelectedDriver failed: %w", err)
		}
		return nil
	}
}

// withDevice runs fn against the device whose instance id matches.
func withDevice(instanceID string, fn func(windows.DevInfo, *windows.DevInfoData) error) error {
	devInfo, err := windows.SetupDiGetClassDevsEx(&netClassGUID, "", 0, 0, 0, "")
	if err != nil {
		return fmt.Errorf("SetupDiGetClassDevsEx failed: %w", err)
	}
	defer func() {
		_ = devInfo.Close()
	}()

	for i := 0; ; i++ {
		data, err := devInfo.EnumDeviceInfo(i)
		if errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
			return fmt.Errorf("device %s not found", instanceID)
		}
		if err != nil {
			continue
		}
		id, err := devInfo.DeviceInstanceID(data)
		if err != nil || !strings.EqualFold(id, instanceID) {
			continue
		}
		return fn(devInfo, data)
	}
}

// setDeviceEnabled enables or disables the device. Enabling makes the driver
// reload its registry settings.
func setDeviceEnabled(instanceID string, enabled bool) error {
	return withDevice(instanceID, func(devInfo windows.DevInfo, data *windows.DevInfoData) error {
		params := windows.PropChangeParams{
			ClassInstallHeader: *windows.MakeClassInstallHeader(windows.DIF_PROPERTYCHANGE),
			StateChange:        windows.DICS_DISABLE,
			Scope:              windows.DICS_FLAG_GLOBAL,
		}
		if enabled {
			params.StateChange = windows.DICS_ENABLE
		}
		if err := devInfo.SetClassInstallParams(data, &params.ClassInstallHeader, uint32(unsafe.Sizeof(params))); err != nil {
			return fmt.Errorf("SetupDiSetClassInstallParams failed: %w", err)
		}
		if err := devInfo.CallClassInstaller(windows.DIF_PROPERTYCHANGE, data); err != nil {
			return fmt.Errorf("DIF_PROPERTYCHANGE failed for %s: %w", instanceID, err)
		}
		return nil
	})
}

func removeDevice(instanceID string) error {
	return withDevice(instanceID, func(devInfo windows.DevInfo, data *windows.DevInfoData) error {
		params := windows.RemoveDeviceParams{
			ClassInstallHeader: *windows.MakeClassInstallHeader(windows.DIF_REMOVE),
			Scope:              windows.DI_REMOVEDEVICE_GLOBAL,
		}
		if err := devInfo.SetClassInstallParams(data, &params.ClassInstallHeader, uint32(unsafe.Sizeof(params))); err != nil {
			return fmt.Errorf("SetupDiSetClassInstallParams failed: %w", err)
		}
		if err := devInfo.CallClassInstaller(windows.DIF_REMOVE, data); err != nil {
			return fmt.Errorf("DIF_REMOVE failed for %s: %w", instanceID, err)
		}
		return nil
	})
}

// multiSZ encodes s as a REG_MULTI_SZ with a single entry.
func multiSZ(s string) []byte {
	u := append(utf16.Encode([]rune(s)), 0, 0)
	b := make([]byte, len(u)*2)
	for i, c := range u {
		b[2*i] = byte(c)
		b[2*i+1] = byte(c >> 8)
	}
	return b
}
