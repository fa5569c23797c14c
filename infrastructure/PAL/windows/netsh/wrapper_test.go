package netsh

import (
	"errors"
	"net/netip"
	"strings"
	"testing"
)

type mockCommander struct {
	name   string
	args   []string
	output []byte
	err    error
}

func (m *mockCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}
func (m *mockCommander) Output(string, ...string) ([]byte, error) { return nil, nil }
func (m *mockCommander) Run(string, ...string) error              { return nil }

func TestNetshWrapper_AllMethods(t *testing.T) {
	tests := []struct {
		name     string
		call     func(w Contract) error
		wantArgs string
	}{
		{
			name:     "InterfaceAddressAdd v4",
			call:     func(w Contract) error { return w.InterfaceAddressAdd(12, netip.MustParsePrefix("10.0.0.5/24")) },
			wantArgs: "interface ipv4 add address name=12 address=10.0.0.5 mask=255.255.255.0 store=active",
		},
		{
			name:     "InterfaceAddressAdd v6",
			call:     func(w Contract) error { return w.InterfaceAddressAdd(12, netip.MustParsePrefix("fd00::5/88")) },
			wantArgs: "interface ipv6 add address interface=12 address=fd00::5/88 store=active",
		},
		{
			name:     "InterfaceAddressDelete v4",
			call:     func(w Contract) error { return w.InterfaceAddressDelete(12, netip.MustParsePrefix("10.0.0.5/24")) },
			wantArgs: "interface ipv4 delete address name=12 address=10.0.0.5",
		},
		{
			name:     "InterfaceAddressDelete v6",
			call:     func(w Contract) error { return w.InterfaceAddressDelete(12, netip.MustParsePrefix("fd00::5/88")) },
			wantArgs: "interface ipv6 delete address interface=12 address=fd00::5",
		},
		{
			name:     "SetInterfaceMetric",
			call:     func(w Contract) error { return w.SetInterfaceMetric(12, 25) },
			wantArgs: "interface ipv4 set interface 12 metric=25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/success", func(t *testing.T) {
			m := &mockCommander{}
			if err := tt.call(NewWrapper(m)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.name != "netsh" {
				t.Fatalf("command = %q", m.name)
			}
			if got := strings.Join(m.args, " "); got != tt.wantArgs {
				t.Fatalf("args = %q, want %q", got, tt.wantArgs)
			}
		})
		t.Run(tt.name+"/failure", func(t *testing.T) {
			m := &mockCommander{output: []byte("Element not found."), err: errors.New("exit status 1")}
			err := tt.call(NewWrapper(m))
			if err == nil || !strings.Contains(err.Error(), "Element not found.") {
				t.Fatalf("expected error with output, got %v", err)
			}
		})
	}
}
