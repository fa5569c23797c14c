//go:build !linux && !darwin && !windows

package pal_factory

import (
	"fmt"
	"runtime"

	application "ethertap/application/network/tap"
	"ethertap/infrastructure/tap"
)

func NewProvisioner(tap.Environment) (application.Provisioner, error) {
	return nil, fmt.Errorf("virtual ethernet taps are not supported on %s", runtime.GOOS)
}
