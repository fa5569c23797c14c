package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ethertap/domain/app"
	"ethertap/presentation/runners/bridge"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultRefreshInterval = time.Second
	logLines               = 8
)

// ErrExitRequested is returned by Run when the user quits the dashboard.
var ErrExitRequested = errors.New("dashboard exit requested")

// StatusSource is polled on every refresh tick.
type StatusSource func() bridge.Status

type Options struct {
	Source StatusSource
	// Interval defaults to one second.
	Interval time.Duration
	LogFeed  LogFeed
}

type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Tab  key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch table"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "exit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Tab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Tab, k.Quit}}
}

type pane int

const (
	paneTaps pane = iota
	panePorts
)

type tickMsg struct{}

type contextDoneMsg struct{}

// Model shows the live taps, the bound Demarc ports and the bridge counters.
type Model struct {
	ctx      context.Context
	source   StatusSource
	interval time.Duration
	logFeed  LogFeed

	keys   keyMap
	help   help.Model
	styles styles
	taps   table.Model
	ports  table.Model
	focus  pane
	status bridge.Status

	exitRequested bool
}

func New(ctx context.Context, options Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	interval := options.Interval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	source := options.Source
	if source == nil {
		source = func() bridge.Status { return bridge.Status{} }
	}

	m := Model{
		ctx:      ctx,
		source:   source,
		interval: interval,
		logFeed:  options.LogFeed,
		keys:     defaultKeyMap(),
		help:     help.New(),
		styles:   defaultStyles(),
		taps: table.New(
			table.WithColumns(tapColumns()),
			table.WithHeight(4),
			table.WithFocused(true),
			table.WithStyles(tableStyles(true)),
		),
		ports: table.New(
			table.WithColumns(portColumns()),
			table.WithHeight(4),
			table.WithStyles(tableStyles(false)),
		),
	}
	m.refresh()
	return m
}

type program interface {
	Run() (tea.Model, error)
}

var newProgram = func(model tea.Model) program {
	return tea.NewProgram(model, tea.WithAltScreen())
}

// Run shows the dashboard until ctx ends or the user quits, in which case it
// returns ErrExitRequested.
func Run(ctx context.Context, options Options) error {
	result, err := newProgram(New(ctx, options)).Run()
	if err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	if final, ok := result.(Model); ok && final.exitRequested {
		return ErrExitRequested
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.interval), waitForContextDone(m.ctx))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.interval)
	case contextDoneMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.exitRequested = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.toggleFocus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == paneTaps {
		m.taps, cmd = m.taps.Update(msg)
	} else {
		m.ports, cmd = m.ports.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	header := s.brand.Render(app.Name) + " " + s.meta.Render("network "+m.status.NetworkID.String())
	b.WriteString(header + "\n\n")

	tapPane, portPane := s.pane, s.pane
	if m.focus == paneTaps {
		tapPane = s.focused
	} else {
		portPane = s.focused
	}
	b.WriteString(s.title.Render("Taps") + "\n")
	if len(m.status.Taps) == 0 {
		b.WriteString(s.warning.Render("no tap open yet") + "\n")
	}
	b.WriteString(tapPane.Render(m.taps.View()) + "\n")

	ports := lipgloss.JoinVertical(lipgloss.Left, s.title.Render("Ports"), portPane.Render(m.ports.View()))
	side := lipgloss.JoinVertical(lipgloss.Left, s.title.Render("Bridge"), s.pane.Render(m.bridgeView()))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, ports, " ", side) + "\n")

	if m.logFeed != nil {
		if lines := m.logFeed.Tail(logLines); len(lines) > 0 {
			b.WriteString(s.title.Render("Log") + "\n")
			b.WriteString(s.log.Render(strings.Join(lines, "\n")) + "\n")
		}
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) bridgeView() string {
	st := m.status.Bridge
	peers := make([]string, 0, len(m.status.Peers))
	for _, p := range m.status.Peers {
		peers = append(peers, p.String())
	}
	if len(peers) == 0 {
		peers = append(peers, "none resolved")
	}
	return strings.Join([]string{
		fmt.Sprintf("frames out    %d", st.FramesOut),
		fmt.Sprintf("datagrams out %d", st.DatagramsOut),
		fmt.Sprintf("send failures %d", st.SendFailures),
		fmt.Sprintf("datagrams in  %d", st.DatagramsIn),
		fmt.Sprintf("frames in     %d", st.FramesIn),
		fmt.Sprintf("dropped       %d", st.Dropped),
		"peers " + strings.Join(peers, ", "),
	}, "\n")
}

func (m *Model) refresh() {
	m.status = m.source()
	m.taps.SetRows(TapRows(m.status))
	m.ports.SetRows(PortRows(m.status))
	m.taps.SetHeight(max(len(m.status.Taps), 1) + 1)
	m.ports.SetHeight(max(len(m.status.Ports), 1) + 1)
}

func (m *Model) toggleFocus() {
	if m.focus == paneTaps {
		m.focus = panePorts
		m.taps.Blur()
		m.ports.Focus()
	} else {
		m.focus = paneTaps
		m.ports.Blur()
		m.taps.Focus()
	}
	m.taps.SetStyles(tableStyles(m.focus == paneTaps))
	m.ports.SetStyles(tableStyles(m.focus == panePorts))
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func waitForContextDone(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return contextDoneMsg{}
	}
}
