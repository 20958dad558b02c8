package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleFilesKey processes keyboard input for the file list.
func (m Model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) {
		m.setStatus("Reloading file list...", false)
		return m, loadFilesCmd(m.ctx, m.engine)
	}

	count := len(m.files)
	if count == 0 {
		return m, nil
	}
	page := maxInt(m.contentHeight(), 1)

	switch {
	case key.Matches(msg, m.keys.Down):
		m.fileCursor++
	case key.Matches(msg, m.keys.Up):
		m.fileCursor--
	case key.Matches(msg, m.keys.Top):
		m.fileCursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.fileCursor = count - 1
	case key.Matches(msg, m.keys.PageDown):
		m.fileCursor += page
	case key.Matches(msg, m.keys.PageUp):
		m.fileCursor -= page
	case key.Matches(msg, m.keys.HalfPageDown):
		m.fileCursor += page / 2
	case key.Matches(msg, m.keys.HalfPageUp):
		m.fileCursor -= page / 2
	case key.Matches(msg, m.keys.Open):
		file := m.files[clamp(m.fileCursor, 0, count-1)]
		m.setStatus("Opening "+file+"...", false)
		return m, openFileCmd(m.ctx, m.engine, file)
	}
	m.fileCursor = clamp(m.fileCursor, 0, count-1)
	return m, nil
}

// renderFiles renders the file list view.
func (m Model) renderFiles() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	innerWidth := m.innerWidth()
	height := m.contentHeight()

	var lines []string
	switch {
	case len(m.files) == 0 && m.engine.ListFilter() != "":
		lines = append(lines, bg.Render("No files match /"+m.engine.ListFilter()+"/", styles.MutedText))
	case len(m.files) == 0:
		lines = append(lines, bg.Render("No files", styles.MutedText))
	default:
		start := scrollStart(m.fileCursor, len(m.files), height)
		end := minInt(start+height, len(m.files))
		selected := m.engine.Selected()
		for i := start; i < end; i++ {
			name := m.files[i]
			marker := "  "
			if name == selected {
				marker = "● "
			}
			text := truncateWidth(marker+name, innerWidth)
			if i == m.fileCursor {
				lines = append(lines, m.theme.Styles().Selected.Width(innerWidth).Render(text))
				continue
			}
			style := styles.Text
			if name == selected {
				style = styles.AccentText
			}
			lines = append(lines, bg.Render(text, style))
		}
	}

	title := fmt.Sprintf("Files %d", len(m.files))
	box := m.renderBox(title, strings.Join(lines, "\n"), m.width, m.height-3, true)
	return box + "\n" + m.renderStatusLine()
}

// scrollStart returns the first row to draw so that cursor stays visible.
func scrollStart(cursor, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	start := cursor - height + 1
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start
}
