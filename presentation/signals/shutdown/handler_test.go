package shutdown

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"ethertap/application/logging"
	palSignal "ethertap/infrastructure/PAL/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier hands the subscribed channel to the test.
type recordingNotifier struct {
	mu       sync.Mutex
	notified chan chan<- os.Signal
	signals  []os.Signal
	stopped  []chan<- os.Signal
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{notified: make(chan chan<- os.Signal, 4)}
}

func (n *recordingNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	n.mu.Lock()
	n.signals = sig
	n.mu.Unlock()
	n.notified <- c
}

func (n *recordingNotifier) Stop(c chan<- os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = append(n.stopped, c)
}

func (n *recordingNotifier) stops() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stopped)
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Printf(format string, v ...any)       { l.record(format, v...) }
func (l *recordingLogger) Debugf(format string, v ...any)       { l.record(format, v...) }
func (l *recordingLogger) Infof(format string, v ...any)        { l.record(format, v...) }
func (l *recordingLogger) Warnf(format string, v ...any)        { l.record(format, v...) }
func (l *recordingLogger) Errorf(format string, v ...any)       { l.record(format, v...) }
func (l *recordingLogger) WithField(string, any) logging.Logger { return l }

func (l *recordingLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func TestHandler_SignalCancelsContext(t *testing.T) {
	for _, sig := range []os.Signal{os.Interrupt, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			notifier := newRecordingNotifier()
			log := &recordingLogger{}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			NewHandler(ctx, cancel, palSignal.Static{os.Interrupt, syscall.SIGTERM}, notifier, log).Handle()

			ch := <-notifier.notified
			ch <- sig

			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("context not cancelled")
			}
			require.Eventually(t, func() bool { return notifier.stops() == 1 }, 2*time.Second, 5*time.Millisecond)
			assert.Contains(t, log.snapshot(), fmt.Sprintf("%s received, shutting down", sig))
		})
	}
}

func TestHandler_ContextDoneUnsubscribesWithoutCancel(t *testing.T) {
	notifier := newRecordingNotifier()
	parent, parentCancel := context.WithCancel(context.Background())

	cancelled := make(chan struct{}, 1)
	appCancel := func() { cancelled <- struct{}{} }

	NewHandler(parent, appCancel, palSignal.Static{os.Interrupt}, notifier, nil).Handle()
	<-notifier.notified
	parentCancel()

	require.Eventually(t, func() bool { return notifier.stops() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, cancelled)
}

func TestHandler_HandleSubscribesOnce(t *testing.T) {
	notifier := newRecordingNotifier()
	ctx, cancel := context.WithCancel(context.Background())

	h := NewHandler(ctx, cancel, palSignal.Static{os.Interrupt}, notifier, nil)
	h.Handle()
	h.Handle()

	<-notifier.notified
	assert.Empty(t, notifier.notified)

	notifier.mu.Lock()
	assert.Equal(t, []os.Signal{os.Interrupt}, notifier.signals)
	notifier.mu.Unlock()

	cancel()
	require.Eventually(t, func() bool { return notifier.stops() == 1 }, 2*time.Second, 5*time.Millisecond)
}
