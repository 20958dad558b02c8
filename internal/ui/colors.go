package ui

import (
	"fmt"
	"regexp"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/livelog/internal/session"
)

var hexColorRe = regexp.MustCompile(`^#([0-9a-f]{3}|[0-9a-f]{6})$`)

// Named web colors a grouping may use beyond the ones mapped onto the theme.
var cssColors = map[string]string{
	"pink":       "#ffc0cb",
	"hotpink":    "#ff69b4",
	"magenta":    "#ff00ff",
	"fuchsia":    "#ff00ff",
	"purple":     "#800080",
	"violet":     "#ee82ee",
	"indigo":     "#4b0082",
	"brown":      "#a52a2a",
	"maroon":     "#800000",
	"olive":      "#808000",
	"salmon":     "#fa8072",
	"coral":      "#ff7f50",
	"tomato":     "#ff6347",
	"khaki":      "#f0e68c",
	"turquoise":  "#40e0d0",
	"skyblue":    "#87ceeb",
	"steelblue":  "#4682b4",
	"royalblue":  "#4169e1",
	"lightgreen": "#90ee90",
	"lightblue":  "#add8e6",
	"lightgray":  "#d3d3d3",
	"lightgrey":  "#d3d3d3",
}

func cssColor(name string) (lipgloss.Color, bool) {
	if hexColorRe.MatchString(name) {
		return lipgloss.Color(name), true
	}
	if hex, ok := cssColors[name]; ok {
		return lipgloss.Color(hex), true
	}
	return "", false
}

// RenderPlainLine formats a classified line for line-oriented output, with
// the grouping color as foreground.
func RenderPlainLine(line session.Line) string {
	text := fmt.Sprintf("%6d  %s", line.Line, line.Content)
	if !line.Styled {
		return text
	}
	color, ok := GetTheme("").GroupingColor(line.Style.Color)
	if !ok {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
