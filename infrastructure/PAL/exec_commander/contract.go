package exec_commander

// Commander runs external tools (ip, ifconfig, netsh, kextload). Wrappers
// take it as a dependency so their tests can record the command lines.
type Commander interface {
	// CombinedOutput returns stdout and stderr; wrappers put it in errors.
	CombinedOutput(name string, args ...string) ([]byte, error)
	Output(name string, args ...string) ([]byte, error)
	Run(name string, args ...string) error
}

var _ Commander = (*ExecCommander)(nil)
