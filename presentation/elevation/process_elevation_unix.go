//go:build !windows

package elevation

import "os"

// ProcessElevationImpl implements ProcessElevation on macOS and Linux.
type ProcessElevationImpl struct {
	geteuid func() int
}

func NewProcessElevation() ProcessElevation {
	return &ProcessElevationImpl{geteuid: os.Geteuid}
}

// IsElevated returns true if we're running as root.
func (p *ProcessElevationImpl) IsElevated() bool {
	return p.geteuid() == 0
}

func (p *ProcessElevationImpl) Hint() string {
	return "Please run the command again with sudo or as root."
}
