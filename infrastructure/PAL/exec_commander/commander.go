package exec_commander

import (
	"context"
	"os/exec"
	"time"
)

// DefaultTimeout bounds every command started by NewExecCommander.
const DefaultTimeout = 30 * time.Second

type ExecCommander struct {
	timeout time.Duration
}

func NewExecCommander() Commander {
	return &ExecCommander{timeout: DefaultTimeout}
}

// NewExecCommanderWithTimeout returns a commander whose commands are killed
// after timeout. A non-positive timeout disables the limit.
func NewExecCommanderWithTimeout(timeout time.Duration) Commander {
	return &ExecCommander{timeout: timeout}
}

func (r *ExecCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	cmd, cancel := r.command(name, args...)
	defer cancel()
	return cmd.CombinedOutput()
}

func (r *ExecCommander) Output(name string, args ...string) ([]byte, error) {
	cmd, cancel := r.command(name, args...)
	defer cancel()
	return cmd.Output()
}

func (r *ExecCommander) Run(name string, args ...string) error {
	cmd, cancel := r.command(name, args...)
	defer cancel()
	return cmd.Run()
}

func (r *ExecCommander) command(name string, args ...string) (*exec.Cmd, context.CancelFunc) {
	if r.timeout <= 0 {
		return exec.Command(name, args...), func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	return exec.CommandContext(ctx, name, args...), cancel
}
