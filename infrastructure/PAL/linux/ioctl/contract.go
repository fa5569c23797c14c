//go:build linux

package ioctl

import (
	"os"

	"ethertap/domain/network/mac"
)

type Contract interface {
	// CreateTapInterface opens the clone device and attaches a TAP interface.
	// The kernel may rewrite name (e.g. "et%d"), the final one is returned.
	CreateTapInterface(name string) (*os.File, string, error)
	DetectTapNameFromFd(fd *os.File) (string, error)
	SetHwAddr(name string, addr mac.MAC) error
	SetMTU(name string, mtu int) error
	SetUp(name string) error
	IsUp(name string) (bool, error)
}
