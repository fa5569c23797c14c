//go:build linux

package epoll

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Device wraps a TAP file descriptor and performs blocking Read/Write
// via epoll(7) instead of blocking read(2)/write(2) on the fd.
//
// Reads and writes wait on separate epoll instances so a writable fd never
// wakes a reader. Close signals an eventfd registered in both, then waits for
// in-flight calls to return before the fds are released.
type Device struct {
	fd      int // duplicated and owned by this wrapper
	readEp  int
	writeEp int
	wake    int // eventfd, readable once Close starts

	closed atomic.Bool
	inUse  sync.RWMutex
}

// NewDevice duplicates f's descriptor. f stays owned by the caller, so the
// interface survives this Device being closed.
func NewDevice(f *os.File) (*Device, error) {
	if f == nil {
		return nil, errors.New("nil file")
	}

	dup, err := unix.Dup(int(f.Fd()))
	runtime.KeepAlive(f)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(dup, true); err != nil {
		_ = unix.Close(dup)
		return nil, err
	}
	if _, err := unix.FcntlInt(uintptr(dup), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		_ = unix.Close(dup)
		return nil, err
	}

	d := &Device{fd: dup, readEp: -1, writeEp: -1, wake: -1}
	if err := d.setup(); err != nil {
		_ = d.release()
		return nil, err
	}
	return d, nil
}

func (d *Device) setup() error {
	wake, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return err
	}
	d.wake = wake

	if d.readEp, err = d.newEpoll(unix.EPOLLIN); err != nil {
		return err
	}
	if d.writeEp, err = d.newEpoll(unix.EPOLLOUT); err != nil {
		return err
	}
	return nil
}

func (d *Device) newEpoll(events uint32) (int, error) {
	ep, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return -1, err
	}
	ev := unix.EpollEvent{Events: events | unix.EPOLLERR | unix.EPOLLHUP, Fd: int32(d.fd)}
	if err := unix.EpollCtl(ep, unix.EPOLL_CTL_ADD, d.fd, &ev); err != nil {
		_ = unix.Close(ep)
		return -1, err
	}
	wake := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(d.wake)}
	if err := unix.EpollCtl(ep, unix.EPOLL_CTL_ADD, d.wake, &wake); err != nil {
		_ = unix.Close(ep)
		return -1, err
	}
	return ep, nil
}

// Read reads a single frame. On EAGAIN it waits for EPOLLIN.
func (d *Device) Read(p []byte) (int, error) {
	d.inUse.RLock()
	defer d.inUse.RUnlock()

	for {
		if d.closed.Load() {
			return 0, io.ErrClosedPipe
		}
		n, err := unix.Read(d.fd, p)
		if err == nil {
			return n, nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if waitErr := d.wait(d.readEp); waitErr != nil {
				return 0, waitErr
			}
		case errors.Is(err, unix.EBADF):
			return 0, io.ErrClosedPipe
		default:
			return 0, err
		}
	}
}

// Write writes one frame. TAP takes whole frames, so a short write is an error.
func (d *Device) Write(p []byte) (int, error) {
	d.inUse.RLock()
	defer d.inUse.RUnlock()

	for {
		if d.closed.Load() {
			return 0, io.ErrClosedPipe
		}
		n, err := unix.Write(d.fd, p)
		if err == nil {
			if n != len(p) {
				return n, io.ErrShortWrite
			}
			return n, nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if waitErr := d.wait(d.writeEp); waitErr != nil {
				return 0, waitErr
			}
		case errors.Is(err, unix.EBADF):
			return 0, io.ErrClosedPipe
		default:
			return 0, err
		}
	}
}

// Close wakes blocked callers, waits for them and closes every owned fd.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	_, _ = unix.Write(d.wake, one[:])

	d.inUse.Lock()
	defer d.inUse.Unlock()
	return d.release()
}

func (d *Device) release() error {
	var errs []error
	for _, fd := range []*int{&d.readEp, &d.writeEp, &d.wake, &d.fd} {
		if *fd < 0 {
			continue
		}
		errs = append(errs, unix.Close(*fd))
		*fd = -1
	}
	return errors.Join(errs...)
}

// wait blocks in epoll_wait on ep. It returns io.ErrClosedPipe once Close has
// started and io.EOF on HUP/ERR.
func (d *Device) wait(ep int) error {
	var events [2]unix.EpollEvent
	for {
		n, err := unix.EpollWait(ep, events[:], -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return err
		}
		for _, ev := range events[:n] {
			if int(ev.Fd) == d.wake {
				return io.ErrClosedPipe
			}
		}
		for _, ev := range events[:n] {
			if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return io.EOF
			}
		}
		if n > 0 {
			return nil
		}
	}
}
