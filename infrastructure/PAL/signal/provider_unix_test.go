//go:build !windows

package signal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestDefaultProvider_Unix(t *testing.T) {
	got := NewDefaultProvider().ShutdownSignals()
	assert.Equal(t, []os.Signal{os.Interrupt, unix.SIGTERM, unix.SIGHUP}, got)
}

func TestStatic_ReturnsCopy(t *testing.T) {
	p := Static{os.Interrupt}

	first := p.ShutdownSignals()
	first[0] = unix.SIGUSR1

	assert.Equal(t, []os.Signal{os.Interrupt}, p.ShutdownSignals())
}
