//go:build linux

package ioctl

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"ethertap/domain/network/mac"

	"golang.org/x/sys/unix"
)

// IfReq mirrors struct ifreq: the interface name followed by a union.
type IfReq struct {
	Name [ifNamSiz]byte
	Data [ifReqData]byte
}

func newIfReq(name string) (*IfReq, error) {
	if len(name) >= ifNamSiz {
		return nil, fmt.Errorf("interface name %q is longer than %d bytes", name, ifNamSiz-1)
	}
	var req IfReq
	copy(req.Name[:], name)
	return &req, nil
}

func (r *IfReq) name() string {
	return strings.TrimRight(string(r.Name[:]), "\x00")
}

func (r *IfReq) flags() uint16 {
	return binary.NativeEndian.Uint16(r.Data[:2])
}

func (r *IfReq) setFlags(flags uint16) {
	binary.NativeEndian.PutUint16(r.Data[:2], flags)
}

func (r *IfReq) setHwAddr(addr mac.MAC) {
	binary.NativeEndian.PutUint16(r.Data[:2], unix.ARPHRD_ETHER)
	copy(r.Data[2:8], addr[:])
}

func (r *IfReq) setInt(v int32) {
	binary.NativeEndian.PutUint32(r.Data[:4], uint32(v))
}

type Wrapper struct {
	commander Commander
	tunPath   string
	// socket opens the control socket interface ioctls are issued on.
	socket func() (int, error)
}

func NewWrapper(commander Commander, tunPath string) Contract {
	return &Wrapper{
		commander: commander,
		tunPath:   tunPath,
		socket: func() (int, error) {
			return unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
		},
	}
}

func (w *Wrapper) CreateTapInterface(name string) (*os.File, string, error) {
	req, err := newIfReq(name)
	if err != nil {
		return nil, "", err
	}
	req.setFlags(iffTap | IffNoPi)

	tap, err := os.OpenFile(w.tunPath, os.O_RDWR, 0)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %v: %v", w.tunPath, err)
	}

	shouldCloseTap := true
	defer func() {
		if shouldCloseTap {
			_ = tap.Close()
		}
	}()

	_, _, errno := w.commander.Ioctl(tap.Fd(), uintptr(tunSetIff), req)
	if errno != 0 {
		return nil, "", fmt.Errorf("ioctl TUNSETIFF failed for %s: %v", name, errno)
	}

	actual := req.name()
	if actual == "" {
		actual = name
	}
	shouldCloseTap = false
	return tap, actual, nil
}

func (w *Wrapper) DetectTapNameFromFd(fd *os.File) (string, error) {
	var req IfReq
	_, _, errno := w.commander.Ioctl(fd.Fd(), uintptr(tunGetIff), &req)
	if errno != 0 {
		return "", errno
	}
	return req.name(), nil
}

func (w *Wrapper) SetHwAddr(name string, addr mac.MAC) error {
	req, err := newIfReq(name)
	if err != nil {
		return err
	}
	req.setHwAddr(addr)
	if err := w.control(unix.SIOCSIFHWADDR, req); err != nil {
		return fmt.Errorf("failed to set hardware address %s on %s: %v", addr, name, err)
	}
	return nil
}

func (w *Wrapper) SetMTU(name string, mtu int) error {
	req, err := newIfReq(name)
	if err != nil {
		return err
	}
	req.setInt(int32(mtu))
	if err := w.control(unix.SIOCSIFMTU, req); err != nil {
		return fmt.Errorf("failed to set mtu %d on %s: %v", mtu, name, err)
	}
	return nil
}

func (w *Wrapper) SetUp(name string) error {
	req, err := newIfReq(name)
	if err != nil {
		return err
	}
	if err := w.control(unix.SIOCGIFFLAGS, req); err != nil {
		return fmt.Errorf("failed to read flags of %s: %v", name, err)
	}
	req.setFlags(req.flags() | unix.IFF_UP)
	if err := w.control(unix.SIOCSIFFLAGS, req); err != nil {
		return fmt.Errorf("failed to bring %s up: %v", name, err)
	}
	return nil
}

func (w *Wrapper) IsUp(name string) (bool, error) {
	req, err := newIfReq(name)
	if err != nil {
		return false, err
	}
	if err := w.control(unix.SIOCGIFFLAGS, req); err != nil {
		return false, fmt.Errorf("failed to read flags of %s: %v", name, err)
	}
	return req.flags()&unix.IFF_UP != 0, nil
}

func (w *Wrapper) control(request uintptr, req *IfReq) error {
	sock, err := w.socket()
	if err != nil {
		return fmt.Errorf("failed to open control socket: %v", err)
	}
	defer func() {
		_ = unix.Close(sock)
	}()

	_, _, errno := w.commander.Ioctl(uintptr(sock), request, req)
	if errno != 0 {
		return errno
	}
	return nil
}
