//go:build windows

package pal_factory

import (
	application "ethertap/application/network/tap"
	"ethertap/infrastructure/PAL/exec_commander"
	"ethertap/infrastructure/PAL/windows/netsh"
	windowsTap "ethertap/infrastructure/PAL/windows/tap"
	"ethertap/infrastructure/tap"
)

// NewProvisioner returns the registry and SetupAPI backed provisioner.
func NewProvisioner(env tap.Environment) (application.Provisioner, error) {
	commander := exec_commander.NewExecCommander()
	return windowsTap.NewProvisioner(commander, netsh.NewWrapper(commander), windowsTap.Options{
		HardwareID:          env.HardwareID,
		InfPath:             env.InfPath,
		TagValueName:        env.TagValueName,
		ProvisionRetries:    env.ProvisionRetries,
		ProvisionRetryDelay: env.ProvisionRetryDelay,
	}), nil
}
