package ifconfig

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"ethertap/domain/network/mac"
)

// fakeCommander records invocations and returns canned output.
type fakeCommander struct {
	commands []string
	out      []byte
	err      error
}

func (f *fakeCommander) record(name string, args ...string) {
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
}

func (f *fakeCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	f.record(name, args...)
	return f.out, f.err
}

func (f *fakeCommander) Output(name string, args ...string) ([]byte, error) {
	f.record(name, args...)
	return f.out, f.err
}

func (f *fakeCommander) Run(name string, args ...string) error {
	f.record(name, args...)
	return f.err
}

const tapOutput = `tap0: flags=8843<UP,BROADCAST,RUNNING,SIMPLEX,MULTICAST> mtu 2800
	ether 02:00:00:00:00:01
	inet6 fe80::1%tap0 prefixlen 64 scopeid 0x5
	inet 10.0.1.20 netmask 0xffffff00 broadcast 10.0.1.255
	inet6 fd00::20 prefixlen 64
	media: autoselect
	status: active
`

func TestSetLLAddr(t *testing.T) {
	fc := &fakeCommander{}
	if err := NewWrapper(fc).SetLLAddr("tap0", mac.MustParse("02:00:00:00:00:01")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.commands[0] != "ifconfig tap0 lladdr 02:00:00:00:00:01" {
		t.Fatalf("unexpected command %q", fc.commands[0])
	}
}

func TestSetMTU(t *testing.T) {
	fc := &fakeCommander{}
	w := NewWrapper(fc)
	if err := w.SetMTU("tap0", 0); err != nil || len(fc.commands) != 0 {
		t.Fatalf("zero mtu should be ignored: %v %v", err, fc.commands)
	}
	if err := w.SetMTU("tap0", 2800); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.commands[0] != "ifconfig tap0 mtu 2800" {
		t.Fatalf("unexpected command %q", fc.commands[0])
	}

	failing := &fakeCommander{out: []byte("bad"), err: errors.New("boom")}
	if err := NewWrapper(failing).SetMTU("tap0", 2800); err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error with output, got %v", err)
	}
}

func TestIsUp(t *testing.T) {
	up, err := NewWrapper(&fakeCommander{out: []byte(tapOutput)}).IsUp("tap0")
	if err != nil || !up {
		t.Fatalf("IsUp = %v, %v", up, err)
	}

	down := "tap0: flags=8802<BROADCAST,SIMPLEX,MULTICAST> mtu 1500\n"
	up, err = NewWrapper(&fakeCommander{out: []byte(down)}).IsUp("tap0")
	if err != nil || up {
		t.Fatalf("IsUp = %v, %v", up, err)
	}

	if _, err := NewWrapper(&fakeCommander{out: []byte("garbage")}).IsUp("tap0"); err == nil {
		t.Fatal("expected error for unparsable output")
	}
}

func TestAddrAdd(t *testing.T) {
	fc := &fakeCommander{}
	w := NewWrapper(fc)
	if err := w.AddrAdd("tap0", netip.MustParsePrefix("10.0.1.20/24")); err != nil {
		t.Fatal(err)
	}
	if err := w.AddrAdd("tap0", netip.MustParsePrefix("fd00::20/64")); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"ifconfig tap0 inet 10.0.1.20 netmask 255.255.255.0 alias",
		"ifconfig tap0 inet6 fd00::20 prefixlen 64 alias",
	}
	if strings.Join(fc.commands, "|") != strings.Join(want, "|") {
		t.Fatalf("commands = %v", fc.commands)
	}
}

func TestAddrDel(t *testing.T) {
	fc := &fakeCommander{}
	w := NewWrapper(fc)
	if err := w.AddrDel("tap0", netip.MustParsePrefix("10.0.1.20/24")); err != nil {
		t.Fatal(err)
	}
	if err := w.AddrDel("tap0", netip.MustParsePrefix("fd00::20/64")); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"ifconfig tap0 inet 10.0.1.20 -alias",
		"ifconfig tap0 inet6 fd00::20 -alias",
	}
	if strings.Join(fc.commands, "|") != strings.Join(want, "|") {
		t.Fatalf("commands = %v", fc.commands)
	}

	failing := &fakeCommander{err: errors.New("boom")}
	if err := NewWrapper(failing).AddrDel("tap0", netip.MustParsePrefix("10.0.1.20/24")); err == nil {
		t.Fatal("expected error")
	}
}

func TestAddrs(t *testing.T) {
	got, err := NewWrapper(&fakeCommander{out: []byte(tapOutput)}).Addrs("tap0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []netip.Prefix{
		netip.MustParsePrefix("fe80::1/64"),
		netip.MustParsePrefix("10.0.1.20/24"),
		netip.MustParsePrefix("fd00::20/64"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
