//go:build windows

package tap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"ethertap/domain/network/mac"

	"golang.org/x/sys/windows"
)

// Handle is an overlapped handle on the driver's control device. Reads and
// writes block on their own event; Close cancels both.
type Handle struct {
	h windows.Handle

	readMu  sync.Mutex
	readOv  windows.Overlapped
	writeMu sync.Mutex
	writeOv windows.Overlapped

	closed atomic.Bool
	inUse  sync.RWMutex
}

func openHandle(netCfgInstanceID string) (*Handle, error) {
	path, err := windows.UTF16PtrFromString(devicePath(netCfgInstanceID))
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFile(path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, nil, windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_SYSTEM|windows.FILE_FLAG_OVERLAPPED, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", devicePath(netCfgInstanceID), err)
	}

	d := &Handle{h: h}
	if d.readOv.HEvent, err = windows.CreateEvent(nil, 1, 0, nil); err != nil {
		_ = d.release()
		return nil, err
	}
	if d.writeOv.HEvent, err = windows.CreateEvent(nil, 1, 0, nil); err != nil {
		_ = d.release()
		return nil, err
	}
	return d, nil
}

func (d *Handle) Read(p []byte) (int, error) {
	d.inUse.RLock()
	defer d.inUse.RUnlock()
	d.readMu.Lock()
	defer d.readMu.Unlock()

	return d.overlapped(&d.readOv, func(ov *windows.Overlapped) error {
		return windows.ReadFile(d.h, p, nil, ov)
	})
}

func (d *Handle) Write(p []byte) (int, error) {
	d.inUse.RLock()
	defer d.inUse.RUnlock()
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	n, err := d.overlapped(&d.writeOv, func(ov *windows.Overlapped) error {
		return windows.WriteFile(d.h, p, nil, ov)
	})
	if err == nil && n != len(p) {
		return n, io.ErrShortWrite
	}
	return n, err
}

func (d *Handle) overlapped(ov *windows.Overlapped, start func(*windows.Overlapped) error) (int, error) {
	if d.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	if err := windows.ResetEvent(ov.HEvent); err != nil {
		return 0, err
	}
	if err := start(ov); err != nil && !errors.Is(err, windows.ERROR_IO_PENDING) {
		return 0, d.mapErr(err)
	}
	// Close may have cancelled before the request was queued.
	if d.closed.Load() {
		_ = windows.CancelIoEx(d.h, ov)
	}
	var n uint32
	if err := windows.GetOverlappedResult(d.h, ov, &n, true); err != nil {
		return 0, d.mapErr(err)
	}
	return int(n), nil
}

func (d *Handle) mapErr(err error) error {
	if d.closed.Load() || errors.Is(err, windows.ERROR_OPERATION_ABORTED) {
		return io.ErrClosedPipe
	}
	return err
}

// control issues a buffered DeviceIoControl and waits for it.
func (d *Handle) control(code uint32, in, out []byte) (int, error) {
	d.inUse.RLock()
	defer d.inUse.RUnlock()
	if d.closed.Load() {
		return 0, io.ErrClosedPipe
	}

	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = windows.CloseHandle(event)
	}()
	ov := windows.Overlapped{HEvent: event}

	var inPtr, outPtr *byte
	if len(in) > 0 {
		inPtr = &in[0]
	}
	if len(out) > 0 {
		outPtr = &out[0]
	}
	var n uint32
	err = windows.DeviceIoControl(d.h, code, inPtr, uint32(len(in)), outPtr, uint32(len(out)), &n, &ov)
	if err != nil && !errors.Is(err, windows.ERROR_IO_PENDING) {
		return 0, d.mapErr(err)
	}
	if err := windows.GetOverlappedResult(d.h, &ov, &n, true); err != nil {
		return 0, d.mapErr(err)
	}
	return int(n), nil
}

// setMediaStatus reports the virtual cable as connected or not.
func (d *Handle) setMediaStatus(connected bool) error {
	var status [4]byte
	if connected {
		binary.LittleEndian.PutUint32(status[:], 1)
	}
	_, err := d.control(ioctlSetMediaStatus, status[:], status[:])
	return err
}

func (d *Handle) multicastMemberships() ([]mac.MAC, error) {
	buf := make([]byte, multicastMembershipBufferSize)
	n, err := d.control(ioctlGetMulticastMemberships, buf, buf)
	if err != nil {
		return nil, err
	}
	return parseMulticastMemberships(buf[:n]), nil
}

// Close cancels pending I/O, waits for blocked callers and closes the handle.
func (d *Handle) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = windows.CancelIoEx(d.h, nil)

	d.inUse.Lock()
	defer d.inUse.Unlock()
	return d.release()
}

func (d *Handle) release() error {
	var errs []error
	for _, h := range []*windows.Handle{&d.readOv.HEvent, &d.writeOv.HEvent, &d.h} {
		if *h == 0 {
			continue
		}
		errs = append(errs, windows.CloseHandle(*h))
		*h = 0
	}
	return errors.Join(errs...)
}
