//go:build darwin

package tap

import (
	"errors"
	"io"
	"net/netip"
	"os"
	"strings"
	"testing"

	application "ethertap/application/network/tap"
	"ethertap/domain/network/mac"

	"github.com/songgao/water"
)

type fakeCommander struct {
	commands []string
	err      error
}

func (f *fakeCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
	return nil, f.err
}

func (f *fakeCommander) Output(name string, args ...string) ([]byte, error) {
	return f.CombinedOutput(name, args...)
}

func (f *fakeCommander) Run(name string, args ...string) error {
	_, err := f.CombinedOutput(name, args...)
	return err
}

type fakeIfconfig struct {
	calls []string
}

func (f *fakeIfconfig) SetLLAddr(ifName string, addr mac.MAC) error {
	f.calls = append(f.calls, "lladdr "+ifName+" "+addr.String())
	return nil
}

func (f *fakeIfconfig) SetMTU(ifName string, mtu int) error {
	f.calls = append(f.calls, "mtu "+ifName)
	return nil
}

func (f *fakeIfconfig) Up(ifName string) error {
	f.calls = append(f.calls, "up "+ifName)
	return nil
}

func (f *fakeIfconfig) IsUp(string) (bool, error) { return true, nil }

func (f *fakeIfconfig) AddrAdd(ifName string, prefix netip.Prefix) error {
	f.calls = append(f.calls, "add "+ifName+" "+prefix.String())
	return nil
}

func (f *fakeIfconfig) AddrDel(ifName string, prefix netip.Prefix) error {
	f.calls = append(f.calls, "del "+ifName+" "+prefix.String())
	return nil
}

func (f *fakeIfconfig) Addrs(string) ([]netip.Prefix, error) { return nil, nil }

type nopDevice struct {
	closed int
}

func (n *nopDevice) Read([]byte) (int, error)    { return 0, io.EOF }
func (n *nopDevice) Write(p []byte) (int, error) { return len(p), nil }
func (n *nopDevice) Close() error {
	n.closed++
	return nil
}

func newTestProvisioner(busy int, cmd *fakeCommander, ifc *fakeIfconfig) (*Provisioner, *[]string) {
	var opened []string
	p := NewProvisioner(cmd, ifc, Options{KextPath: "/Library/Extensions/tap.kext"}).(*Provisioner)
	p.stat = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }
	p.open = func(name string) (*water.Interface, error) {
		opened = append(opened, name)
		if len(opened) <= busy {
			return nil, errors.New("resource busy")
		}
		return &water.Interface{ReadWriteCloser: &nopDevice{}}, nil
	}
	return p, &opened
}

func TestProvision_LoadsKextAndPicksFreeNode(t *testing.T) {
	cmd := &fakeCommander{}
	ifc := &fakeIfconfig{}
	p, opened := newTestProvisioner(2, cmd, ifc)

	driver, err := p.Provision(application.Config{MAC: mac.MustParse("02:00:00:00:00:01"), MTU: 2800})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	defer func() { _ = driver.Release() }()

	if cmd.commands[0] != "kextload /Library/Extensions/tap.kext" {
		t.Fatalf("commands = %v", cmd.commands)
	}
	if strings.Join(*opened, ",") != "tap0,tap1,tap2" || driver.DeviceName() != "tap2" {
		t.Fatalf("opened %v, name %s", *opened, driver.DeviceName())
	}
	want := "lladdr tap2 02:00:00:00:00:01|mtu tap2|up tap2"
	if strings.Join(ifc.calls, "|") != want {
		t.Fatalf("ifconfig calls = %v", ifc.calls)
	}
}

func TestProvision_KextFailure(t *testing.T) {
	p, _ := newTestProvisioner(0, &fakeCommander{err: errors.New("kextload failed")}, &fakeIfconfig{})
	if _, err := p.Provision(application.Config{MTU: 2800}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDriver_OpenHandsOverThenReopens(t *testing.T) {
	p, opened := newTestProvisioner(0, &fakeCommander{}, &fakeIfconfig{})
	driver, err := p.Provision(application.Config{DeviceName: "tap7", MTU: 2800})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if _, err := driver.Open(); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if len(*opened) != 1 {
		t.Fatalf("first Open should reuse the provisioned node, opened %v", *opened)
	}
	if _, err := driver.Open(); err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if strings.Join(*opened, ",") != "tap7,tap7" {
		t.Fatalf("opened %v", *opened)
	}

	if err := driver.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := driver.Open(); !errors.Is(err, application.ErrClosed) {
		t.Fatalf("Open after Release: %v", err)
	}
}
