//go:build darwin

package pal_factory

import (
	application "ethertap/application/network/tap"
	"ethertap/infrastructure/PAL/darwin/ifconfig"
	darwinTap "ethertap/infrastructure/PAL/darwin/tap"
	"ethertap/infrastructure/PAL/exec_commander"
	"ethertap/infrastructure/tap"
)

// NewProvisioner returns the tuntaposx backed provisioner.
func NewProvisioner(env tap.Environment) (application.Provisioner, error) {
	commander := exec_commander.NewExecCommander()
	return darwinTap.NewProvisioner(commander, ifconfig.NewWrapper(commander), darwinTap.Options{
		KextPath: env.KextPath,
	}), nil
}
