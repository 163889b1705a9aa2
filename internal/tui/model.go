package tui

import (
	"fmt"
	"strconv"
	"time"

	"awimctl/internal/config"
	"awimctl/internal/supervisor"
	"awimctl/pkg/logging"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	snapshotInterval   = 500 * time.Millisecond
	maxActivityLines   = 200
	visibleLogLines    = 12
	flashClearInterval = 4 * time.Second
)

type snapshotMsg supervisor.Snapshot

type logEntryMsg logging.LogEntry

type logChannelClosedMsg struct{}

type toggleDoneMsg struct {
	snap supervisor.Snapshot
	err  error
}

type clearFlashMsg struct{}

// Model is the bubbletea model for the awimctl dashboard.
type Model struct {
	sup   *supervisor.Supervisor
	store *config.Store
	logCh <-chan logging.LogEntry

	snap        supervisor.Snapshot
	spin        spinner.Model
	activityLog []string
	flash       string
	flashIsErr  bool

	editing      bool
	addressInput textinput.Model
	portInput    textinput.Model
	portFocused  bool

	width    int
	height   int
	quitting bool
}

// NewModel builds the initial dashboard model.
func NewModel(sup *supervisor.Supervisor, store *config.Store, logCh <-chan logging.LogEntry) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	address := textinput.New()
	address.Placeholder = "127.0.0.1"
	address.CharLimit = 45
	address.Width = 40

	port := textinput.New()
	port.Placeholder = "1242"
	port.CharLimit = 5
	port.Width = 8

	return Model{
		sup:          sup,
		store:        store,
		logCh:        logCh,
		snap:         sup.Snapshot(),
		spin:         sp,
		addressInput: address,
		portInput:    port,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, pollSnapshot(m.sup), listenLogs(m.logCh))
}

func pollSnapshot(sup *supervisor.Supervisor) tea.Cmd {
	return tea.Tick(snapshotInterval, func(time.Time) tea.Msg {
		return snapshotMsg(sup.Snapshot())
	})
}

func listenLogs(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return logChannelClosedMsg{}
		}
		return logEntryMsg(entry)
	}
}

func toggleWorker(sup *supervisor.Supervisor, enabled bool) tea.Cmd {
	return func() tea.Msg {
		snap, err := sup.SetEnabled(enabled)
		return toggleDoneMsg{snap: snap, err: err}
	}
}

func clearFlashLater() tea.Cmd {
	return tea.Tick(flashClearInterval, func(time.Time) tea.Msg {
		return clearFlashMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snap = supervisor.Snapshot(msg)
		return m, pollSnapshot(m.sup)

	case logEntryMsg:
		m.appendLog(fmt.Sprintf("%s [%s] %s", msg.Timestamp.Format("15:04:05"), msg.Subsystem, msg.Message))
		return m, listenLogs(m.logCh)

	case logChannelClosedMsg:
		return m, nil

	case toggleDoneMsg:
		m.snap = msg.snap
		if msg.err != nil {
			m.flash = msg.err.Error()
			m.flashIsErr = true
			return m, clearFlashLater()
		}
		return m, nil

	case clearFlashMsg:
		m.flash = ""
		m.flashIsErr = false
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "s":
		m.flash = "starting awim..."
		m.flashIsErr = false
		return m, tea.Batch(toggleWorker(m.sup, true), clearFlashLater())
	case "x":
		m.flash = "stopping awim..."
		m.flashIsErr = false
		return m, tea.Batch(toggleWorker(m.sup, false), clearFlashLater())
	case "t":
		cfg := m.store.SetTCPMode(!m.store.Current().TCPMode)
		m.flash = fmt.Sprintf("transport set to %s", cfg.Transport())
		m.flashIsErr = false
		m.snap = m.sup.Snapshot()
		return m, clearFlashLater()
	case "e":
		cfg := m.store.Current()
		m.editing = true
		m.portFocused = false
		m.addressInput.SetValue(cfg.IP)
		m.portInput.SetValue(strconv.Itoa(cfg.Port))
		m.addressInput.Focus()
		m.portInput.Blur()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.addressInput.Blur()
		m.portInput.Blur()
		return m, nil
	case "tab", "shift+tab":
		m.portFocused = !m.portFocused
		if m.portFocused {
			m.addressInput.Blur()
			m.portInput.Focus()
		} else {
			m.portInput.Blur()
			m.addressInput.Focus()
		}
		return m, textinput.Blink
	case "enter":
		address := m.addressInput.Value()
		port, err := strconv.Atoi(m.portInput.Value())
		if err != nil {
			m.flash = "port must be an integer"
			m.flashIsErr = true
			return m, clearFlashLater()
		}
		if _, err := m.store.Update(address, port); err != nil {
			m.flash = err.Error()
			m.flashIsErr = true
			return m, clearFlashLater()
		}
		m.editing = false
		m.addressInput.Blur()
		m.portInput.Blur()
		m.snap = m.sup.Snapshot()
		m.flash = fmt.Sprintf("config saved: %s:%d", address, port)
		m.flashIsErr = false
		return m, clearFlashLater()
	}

	var cmd tea.Cmd
	if m.portFocused {
		m.portInput, cmd = m.portInput.Update(msg)
	} else {
		m.addressInput, cmd = m.addressInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) appendLog(line string) {
	m.activityLog = append(m.activityLog, line)
	if len(m.activityLog) > maxActivityLines {
		m.activityLog = m.activityLog[len(m.activityLog)-maxActivityLines:]
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(sup *supervisor.Supervisor, store *config.Store, logCh <-chan logging.LogEntry) error {
	p := tea.NewProgram(NewModel(sup, store, logCh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
