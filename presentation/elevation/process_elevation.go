package elevation

// ProcessElevation checks whether the process may create network devices.
type ProcessElevation interface {
	IsElevated() bool
	// Hint tells the user how to restart with the right privileges.
	Hint() string
}
