package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// handleAnalyticsKey processes keyboard input for the analytics summary.
func (m Model) handleAnalyticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) {
		return m, analyticsCmd(m.ctx, m.engine)
	}

	count := len(m.engine.VisibleAnalytics())
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		m.analyticsCursor++
	case key.Matches(msg, m.keys.Up):
		m.analyticsCursor--
	case key.Matches(msg, m.keys.Top):
		m.analyticsCursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.analyticsCursor = count - 1
	}
	m.analyticsCursor = clamp(m.analyticsCursor, 0, count-1)
	return m, nil
}

// renderAnalytics renders the per-grouping counts of the open file.
func (m Model) renderAnalytics() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	entries := m.engine.VisibleAnalytics()
	innerWidth := m.innerWidth()
	height := m.contentHeight()

	countWidth := 5
	for _, e := range entries {
		countWidth = maxInt(countWidth, len(fmt.Sprint(e.Count)))
	}

	var lines []string
	if len(entries) == 0 {
		lines = append(lines, bg.Render("No groupings", styles.MutedText))
	}
	start := scrollStart(m.analyticsCursor, len(entries), height)
	end := minInt(start+height, len(entries))
	for i := start; i < end; i++ {
		e := entries[i]
		swatch := styles.FaintText
		if color, ok := m.theme.GroupingColor(e.Color); ok {
			swatch = swatch.Foreground(color)
		}
		count := fmt.Sprintf("%*d", countWidth, e.Count)
		pattern := truncateWidth(e.Pattern, innerWidth-countWidth-4)
		if i == m.analyticsCursor {
			sel := m.theme.Styles().Selected
			lines = append(lines,
				swatch.Background(lipgloss.Color(m.theme.SelectionBg)).Render("■ ")+
					sel.Width(innerWidth-2).Render(count+"  "+pattern))
			continue
		}
		lines = append(lines,
			swatch.Render("■ ")+bg.Render(count, styles.AccentText)+bg.Spaces(2)+bg.Render(pattern, styles.Text))
	}

	title := "Analytics " + m.snapshot.File
	box := m.renderBox(title, strings.Join(lines, "\n"), m.width, m.height-3, true)
	return box + "\n" + m.renderStatusLine()
}
