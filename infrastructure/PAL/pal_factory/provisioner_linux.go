//go:build linux

package pal_factory

import (
	application "ethertap/application/network/tap"
	"ethertap/infrastructure/PAL/exec_commander"
	"ethertap/infrastructure/PAL/linux/ioctl"
	"ethertap/infrastructure/PAL/linux/ip"
	linuxTap "ethertap/infrastructure/PAL/linux/tap"
	"ethertap/infrastructure/tap"
)

// NewProvisioner returns the /dev/net/tun backed provisioner.
func NewProvisioner(env tap.Environment) (application.Provisioner, error) {
	return linuxTap.NewProvisioner(
		ioctl.NewWrapper(ioctl.NewLinuxIoctlCommander(), env.TunDevicePath),
		ip.NewWrapper(exec_commander.NewExecCommander()),
		linuxTap.Options{
			NamePrefix:   env.NamePrefix,
			ProcConfDir:  env.ProcConfDir,
			DevMcastPath: env.DevMcastPath,
		},
	), nil
}
