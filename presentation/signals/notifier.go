package signals

import "os"

// Notifier is the os/signal subscription surface. Handlers depend on it so
// tests can deliver signals without touching the process.
type Notifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}
