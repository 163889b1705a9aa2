package tui

import (
	"fmt"
	"strings"

	"awimctl/internal/status"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(12)

	connectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	waitingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	stoppedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	logStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	flashOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	flashErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("awimctl • awim bridge supervisor"))
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.renderStatePanel()))
	b.WriteString("\n")

	if m.editing {
		b.WriteString(m.renderEditor())
		b.WriteString("\n")
	}

	if m.flash != "" {
		style := flashOKStyle
		if m.flashIsErr {
			style = flashErrStyle
		}
		b.WriteString(style.Render(m.flash))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderActivityLog())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderStatePanel() string {
	var lines []string
	lines = append(lines, labelStyle.Render("Server")+fmt.Sprintf("%s:%d (%s)", m.snap.Address, m.snap.Port, m.snap.TransportMode))
	lines = append(lines, labelStyle.Render("Status")+m.renderStatus())
	if m.snap.Running {
		lines = append(lines, labelStyle.Render("PID")+fmt.Sprintf("%d", m.snap.PID))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	switch status.State(m.snap.Status) {
	case status.StateConnected:
		return connectedStyle.Render("● Connected")
	case status.StateWaiting:
		return waitingStyle.Render(fmt.Sprintf("%s Waiting for server (attempt %d)", m.spin.View(), m.snap.Attempt))
	case status.StateError:
		return errorStyle.Render(fmt.Sprintf("✗ Error (exit code %d)", m.snap.ErrorCode))
	default:
		return stoppedStyle.Render("○ Stopped")
	}
}

func (m Model) renderEditor() string {
	return fmt.Sprintf("  address: %s  port: %s\n  %s",
		m.addressInput.View(),
		m.portInput.View(),
		helpStyle.Render("tab: switch field • enter: save • esc: cancel"))
}

func (m Model) renderActivityLog() string {
	if len(m.activityLog) == 0 {
		return logStyle.Render("  (no activity yet)")
	}
	start := 0
	if len(m.activityLog) > visibleLogLines {
		start = len(m.activityLog) - visibleLogLines
	}
	width := m.width
	if width <= 0 {
		width = 100
	}
	var lines []string
	for _, line := range m.activityLog[start:] {
		lines = append(lines, logStyle.Render("  "+runewidth.Truncate(line, width-4, "…")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) helpLine() string {
	if m.editing {
		return ""
	}
	return "s: start • x: stop • t: toggle transport • e: edit config • q: quit"
}
