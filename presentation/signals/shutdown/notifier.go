package shutdown

import (
	"os"
	"os/signal"

	"ethertap/presentation/signals"
)

// OSNotifier forwards to os/signal.
type OSNotifier struct{}

func NewNotifier() signals.Notifier {
	return OSNotifier{}
}

func (OSNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (OSNotifier) Stop(c chan<- os.Signal)                     { signal.Stop(c) }
