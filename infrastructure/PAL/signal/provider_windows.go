//go:build windows

package signal

import (
	"os"
	"syscall"
)

// NewDefaultProvider stops on Ctrl+C and on console close, logoff or system
// shutdown, which the runtime reports as SIGTERM.
func NewDefaultProvider() Provider {
	return Static{os.Interrupt, syscall.SIGTERM}
}
