package tap

import (
	"context"
	"errors"
	"io"
	"time"

	"ethertap/application/network/tap"
	"ethertap/domain/network/ethernet"
)

type State int32

const (
	StateOpening State = iota
	StateRunning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (t *Tap) setState(s State) {
	t.state.Store(int32(s))
}

func (t *Tap) run() {
	defer close(t.done)
	defer t.setState(StateClosed)

	if t.opts.Traffic != nil {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go t.opts.Traffic.Start(ctx)
	}

	for {
		t.setState(StateOpening)
		handle, ok := t.open()
		if !ok {
			return
		}

		t.setState(StateRunning)
		reopen := t.serve(handle)

		t.setState(StateClosing)
		if !reopen {
			return
		}
		t.stats.reopens.Add(1)
		t.log.Warnf("reopening device")
		if !t.sleep(t.opts.OpenRetryInterval) {
			return
		}
	}
}

// sleep waits for d and reports false if the tap was closed meanwhile.
func (t *Tap) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.stop:
		return false
	case <-timer.C:
		return true
	}
}

// open retries until the driver hands out a handle or the tap is closed.
func (t *Tap) open() (tap.Handle, bool) {
	for {
		handle, err := t.driver.Open()
		if err == nil {
			t.log.Debugf("device opened")
			return handle, true
		}
		t.log.Warnf("failed to open device, retrying in %s: %v", t.opts.OpenRetryInterval, err)
		if !t.sleep(t.opts.OpenRetryInterval) {
			return nil, false
		}
	}
}

// serve runs one open session and reports whether the device must be reopened.
// The handle is closed and both helper goroutines are joined before it returns.
func (t *Tap) serve(handle tap.Handle) (reopen bool) {
	readErr := make(chan error, 1)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		t.readLoop(handle, readErr)
	}()

	writes := make(chan []byte)
	written := make(chan error, 1)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for frame := range writes {
			n, err := handle.Write(frame)
			if err == nil {
				t.opts.Traffic.AddTX(n)
			}
			written <- err
		}
	}()

	defer func() {
		_ = handle.Close()
		close(writes)
		<-readerDone
		<-writerDone
	}()

	health := time.NewTicker(t.opts.HealthInterval)
	defer health.Stop()

	// inject is nil while a write is outstanding so the next frame stays queued.
	inject := t.inject
	for {
		select {
		case <-t.stop:
			return false

		case err := <-readErr:
			t.log.Warnf("read failed: %v", err)
			return true

		case frame := <-inject:
			inject = nil
			writes <- frame

		case err := <-written:
			inject = t.inject
			if err != nil {
				t.stats.writeErrors.Add(1)
				if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) {
					return true
				}
				t.log.Debugf("write failed: %v", err)
			}

		case <-health.C:
			up, err := t.driver.LinkUp()
			if err != nil {
				t.log.Debugf("link state unavailable: %v", err)
				continue
			}
			if !up {
				t.log.Warnf("adapter reports link down")
				return true
			}
		}
	}
}

func (t *Tap) readLoop(handle tap.Handle, errs chan<- error) {
	buf := make([]byte, t.cfg.MTU+ethernet.HeaderSize+ethernet.TagSize)
	for {
		n, err := handle.Read(buf)
		if err != nil {
			select {
			case errs <- err:
			default:
			}
			return
		}
		if n > 0 {
			t.deliver(buf[:n])
		}
	}
}

func (t *Tap) deliver(frame []byte) {
	t.opts.Traffic.AddRX(len(frame))
	if len(frame) < ethernet.HeaderSize {
		t.stats.droppedShort.Add(1)
		return
	}
	if !t.enabled.Load() {
		t.stats.droppedDisabled.Add(1)
		return
	}
	h, payload, err := ethernet.Decode(frame)
	if err != nil {
		t.stats.droppedMalformed.Add(1)
		return
	}
	t.stats.delivered.Add(1)
	if t.handler != nil {
		t.handler(t.cfg.NetworkID, h.Src, h.Dst, h.EtherType, h.VLAN, payload)
	}
}
