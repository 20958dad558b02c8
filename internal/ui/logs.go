package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/livelog/internal/session"
	"github.com/five82/livelog/internal/tail"
)

// initLogViewport initializes the log viewport.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(m.innerWidth(), m.contentHeight())
	m.logViewport.Style = lipgloss.NewStyle()
}

// updateLogViewport re-renders the tail into the viewport.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}

	// Box height = m.height - 3 (header, cmdbar, status line below)
	// Box inner = box height - 2 (top and bottom borders) = m.height - 5
	m.logViewport.Width = m.innerWidth()
	m.logViewport.Height = m.contentHeight()
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	m.logViewport.SetContent(m.renderLogContent())

	if m.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent renders every visible line with its grouping color.
func (m Model) renderLogContent() string {
	if len(m.snapshot.Lines) == 0 {
		styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
		switch {
		case m.snapshot.File == "":
			return styles.MutedText.Render("No file open. Press o to pick one.")
		case m.snapshot.Total > 0:
			return styles.MutedText.Render("No lines match /" + m.engine.ContentFilter() + "/")
		default:
			return styles.MutedText.Render("Waiting for lines...")
		}
	}

	width := m.innerWidth()
	gutter := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Faint)).
		Background(lipgloss.Color(m.theme.FocusBg))
	plain := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Text)).
		Background(lipgloss.Color(m.theme.FocusBg))

	var b strings.Builder
	for i, line := range m.snapshot.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		num := fmt.Sprintf("%6d │ ", line.Line)
		b.WriteString(gutter.Render(num))
		text := truncateWidth(line.Content, width-lipgloss.Width(num))
		b.WriteString(m.lineStyle(line, plain).Render(text))
	}
	return b.String()
}

func (m Model) lineStyle(line session.Line, plain lipgloss.Style) lipgloss.Style {
	if !line.Styled {
		return plain
	}
	color, ok := m.theme.GroupingColor(line.Style.Color)
	if !ok {
		return plain
	}
	return plain.Foreground(color)
}

// handleLogsKey processes keyboard input for the log tail.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.TogglePoll):
		enabled := !m.engine.PollingEnabled()
		m.engine.SetPollingEnabled(enabled)
		m.refresh()
	case key.Matches(msg, m.keys.Refresh):
		if m.engine.Selected() == "" {
			return m, nil
		}
		return m, pollNowCmd(m.ctx, m.engine)
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.follow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.follow = true
		m.logViewport.GotoBottom()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.logViewport.PageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.follow = false
		m.logViewport.HalfPageUp()
	}
	return m, nil
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	box := m.renderBox(m.logTitle(), m.logViewport.View(), m.width, m.height-3, true)
	return box + "\n" + m.renderStatusLine()
}

// logTitle returns the plain text title for the log view.
func (m Model) logTitle() string {
	if m.snapshot.File == "" {
		return "Log"
	}
	if m.engine.ContentFilter() != "" {
		return m.snapshot.File + " (filtered)"
	}
	return m.snapshot.File
}

// logSummary is the status line text for the log view.
func (m Model) logSummary() string {
	follow := "off"
	if m.follow {
		follow = "on"
	}
	parts := []string{
		fmt.Sprintf("%d of %d lines", len(m.snapshot.Lines), m.snapshot.Total),
		"follow " + follow,
	}
	if m.snapshot.HasCursor {
		parts = append(parts, fmt.Sprintf("cursor %d", m.snapshot.Cursor))
	}
	if m.snapshot.PollState == tail.InFlight {
		parts = append(parts, "fetching")
	}
	return strings.Join(parts, "  ")
}
