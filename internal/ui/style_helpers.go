package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders segments that keep one background color across the ANSI
// resets lipgloss emits between them.
// See: https://github.com/charmbracelet/lipgloss/discussions/78
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a background helper for bgColor.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style on the background, spaces included.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator string.
func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// renderBox draws a rounded box of the given outer size with title set into
// the top border.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	borderColor := lipgloss.Color(m.theme.Border)
	if focused {
		borderColor = lipgloss.Color(m.theme.BorderFocus)
	}
	border := lipgloss.RoundedBorder()
	edge := lipgloss.NewStyle().Foreground(borderColor)
	innerWidth := maxInt(width-2, 0)

	label := truncateWidth(" "+title+" ", maxInt(innerWidth-1, 0))
	fill := maxInt(innerWidth-1-lipgloss.Width(label), 0)
	top := edge.Render(border.TopLeft+border.Top) +
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Text)).Bold(true).Render(label) +
		edge.Render(strings.Repeat(border.Top, fill)+border.TopRight)

	body := lipgloss.NewStyle().
		Border(border).
		BorderTop(false).
		BorderForeground(borderColor).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Padding(0, 1).
		Width(innerWidth).
		Height(maxInt(height-2, 0)).
		Render(content)

	return top + "\n" + body
}

// innerWidth is the text width inside a full-width box.
func (m Model) innerWidth() int {
	return maxInt(m.width-4, 0)
}

// contentHeight is the number of rows inside the main box.
func (m Model) contentHeight() int {
	return maxInt(m.height-5, 0)
}
