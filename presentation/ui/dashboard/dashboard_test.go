package dashboard

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"ethertap/domain/network/nwid"
	"ethertap/infrastructure/demarc"
	"ethertap/presentation/runners/bridge"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStatus() bridge.Status {
	return bridge.Status{
		NetworkID: nwid.ID(0x8056c2e21c000001),
		Ports: []demarc.PortInfo{
			{Port: demarc.Port(1), Type: demarc.UDPSocketV4, Local: netip.MustParseAddrPort("0.0.0.0:9993")},
			{Port: demarc.Port(3), Type: demarc.LocalEthernet},
		},
		Peers:  []netip.AddrPort{netip.MustParseAddrPort("198.51.100.4:9993")},
		Bridge: bridge.Stats{FramesOut: 7, DatagramsIn: 3},
	}
}

type countingSource struct {
	calls  int
	status bridge.Status
}

func (c *countingSource) get() bridge.Status {
	c.calls++
	return c.status
}

func TestPortRows(t *testing.T) {
	rows := PortRows(testStatus())
	assert.Equal(t, []table.Row{
		{"0000000000000001", "udp4", "0.0.0.0:9993"},
		{"0000000000000003", "ethernet", "-"},
	}, rows)
	assert.Empty(t, TapRows(testStatus()))
}

func TestModel_RefreshesOnTick(t *testing.T) {
	src := &countingSource{status: testStatus()}
	m := New(context.Background(), Options{Source: src.get})
	require.Equal(t, 1, src.calls)
	assert.Len(t, m.ports.Rows(), 2)

	next, cmd := m.Update(tickMsg{})
	assert.Equal(t, 2, src.calls)
	assert.NotNil(t, cmd)
	assert.Equal(t, testStatus().Bridge, next.(Model).status.Bridge)
}

func TestModel_TabSwitchesFocus(t *testing.T) {
	m := New(context.Background(), Options{Source: testStatus})
	require.Equal(t, paneTaps, m.focus)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, panePorts, m.focus)
	assert.True(t, m.ports.Focused())
	assert.False(t, m.taps.Focused())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneTaps, next.(Model).focus)
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), Options{Source: testStatus})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(Model).exitRequested)
}

func TestModel_QuitsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := New(ctx, Options{Source: testStatus})

	msg := waitForContextDone(ctx)()
	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, next.(Model).exitRequested)
}

func TestModel_View(t *testing.T) {
	logs := NewLogBuffer(8)
	_, _ = logs.Write([]byte("bridging network 8056c2e21c000001\n"))
	m := New(context.Background(), Options{Source: testStatus, LogFeed: logs})

	view := m.View()
	for _, want := range []string{
		"ethertap",
		"8056c2e21c000001",
		"no tap open yet",
		"udp4",
		"0.0.0.0:9993",
		"frames out    7",
		"198.51.100.4:9993",
		"bridging network",
	} {
		assert.True(t, strings.Contains(view, want), "view lacks %q", want)
	}
}

type fakeProgram struct {
	model tea.Model
	err   error
}

func (p fakeProgram) Run() (tea.Model, error) { return p.model, p.err }

func TestRun(t *testing.T) {
	prev := newProgram
	t.Cleanup(func() { newProgram = prev })

	t.Run("user exit", func(t *testing.T) {
		newProgram = func(model tea.Model) program {
			m := model.(Model)
			m.exitRequested = true
			return fakeProgram{model: m}
		}
		assert.True(t, errors.Is(Run(context.Background(), Options{Source: testStatus}), ErrExitRequested))
	})
	t.Run("context ended", func(t *testing.T) {
		newProgram = func(model tea.Model) program { return fakeProgram{model: model} }
		assert.NoError(t, Run(context.Background(), Options{Source: testStatus}))
	})
	t.Run("program error", func(t *testing.T) {
		newProgram = func(tea.Model) program { return fakeProgram{err: errors.New("no tty")} }
		assert.Error(t, Run(context.Background(), Options{Source: testStatus}))
	})
}
