package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/livelog/internal/state"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("livelog", styles.Logo)}

	if m.serverURL != "" {
		limit := 40
		if compact {
			limit = 24
		}
		parts = append(parts, bg.Render(truncateMiddle(m.serverURL, limit), styles.MutedText))
	}

	file := m.engine.Selected()
	if file == "" {
		parts = append(parts, bg.Render("no file", styles.FaintText))
	} else {
		limit := 50
		if compact {
			limit = 24
		}
		parts = append(parts, bg.Render(truncateMiddle(file, limit), styles.Text))

		switch {
		case m.engine.AnalyticsOpen():
			parts = append(parts, bg.Render("❚❚ ANALYTICS", styles.WarningText))
		case m.snapshot.Polling:
			parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
		default:
			parts = append(parts, bg.Render("❚❚ PAUSED", styles.WarningText))
		}
	}

	if warning := m.formatHealthWarning(compact, styles, bg); warning != "" {
		parts = append(parts, warning)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Padding(0, 1).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// formatHealthWarning describes the first stream that lost the server.
func (m Model) formatHealthWarning(compact bool, styles Styles, bg BgStyle) string {
	for _, stream := range []state.Stream{state.StreamTail, state.StreamGroupings} {
		h := m.health[stream]
		if !h.IsOffline() {
			continue
		}
		label := classifyConnectionError(h.LastError)
		detail := fmt.Sprintf("%s failing, retrying (%d)", stream, h.ConsecutiveFailures)
		if !compact && !h.LastUpdated.IsZero() {
			detail += " since " + h.LastUpdated.Format("15:04:05")
		}
		return bg.Render(label, styles.DangerText.Bold(true)) + bg.Space() +
			bg.Render(detail, styles.DangerText)
	}
	return ""
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "returned status"):
		return "SERVER ERROR"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"/", "Filter"},
			{"p", "Tail on/off"},
			{"a", "Analytics"},
			{"d", "Download"},
			{"o", "Files"},
			{"?", "More"},
		}
	case ViewAnalytics:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"/", "Filter"},
			{"r", "Reload"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default: // ViewFiles
		commands = []cmd{
			{"enter", "Open"},
			{"/", "Filter"},
			{"j/k", "Navigate"},
			{"r", "Reload"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	pattern := m.engine.ContentFilter()
	if m.currentView == ViewFiles {
		pattern = m.engine.ListFilter()
	}
	if pattern != "" {
		segments = append(segments, bg.Render("/"+truncateWidth(pattern, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderStatusLine renders the line below the main box: the filter prompt
// while editing, then any transient message, then a view summary.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()

	if m.inputTarget != inputNone {
		label := "filter lines "
		if m.inputTarget == inputListFilter {
			label = "filter files "
		}
		return styles.FaintText.Render(label) + m.input.View()
	}

	if m.status != "" {
		style := styles.MutedText
		if m.statusErr {
			style = styles.DangerText
		}
		return style.Render(truncateWidth(m.status, m.width))
	}

	var summary string
	switch m.currentView {
	case ViewLogs:
		summary = m.logSummary()
	case ViewAnalytics:
		summary = fmt.Sprintf("%d groupings  tail paused", len(m.engine.VisibleAnalytics()))
	default:
		summary = fmt.Sprintf("%d files", len(m.files))
	}
	return styles.FaintText.Render(truncateWidth(summary, m.width))
}
