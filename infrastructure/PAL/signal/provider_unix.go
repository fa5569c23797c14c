//go:build !windows

package signal

import (
	"os"

	"golang.org/x/sys/unix"
)

// NewDefaultProvider stops on SIGINT, SIGTERM and a hangup of the
// controlling terminal.
func NewDefaultProvider() Provider {
	return Static{os.Interrupt, unix.SIGTERM, unix.SIGHUP}
}
