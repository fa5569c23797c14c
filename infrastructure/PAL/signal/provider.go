package signal

import (
	"os"
	"slices"
)

// Provider lists the signals that stop a running bridge.
type Provider interface {
	ShutdownSignals() []os.Signal
}

// Static is a Provider over a fixed signal list.
type Static []os.Signal

// ShutdownSignals returns a copy; callers may append to it.
func (s Static) ShutdownSignals() []os.Signal {
	return slices.Clone(s)
}
