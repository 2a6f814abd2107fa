package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// ProgressBar renders ratio (0..1) as a bar of width cells followed by
// the percentage.
func ProgressBar(ratio float64, width int) string {
	if width < 4 {
		width = 4
	}
	ratio = min(max(ratio, 0), 1)
	filled := int(float64(width) * ratio)
	bar := lipgloss.NewStyle().Foreground(Secondary).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("░", width-filled))
	return bar + Hint.Render(fmt.Sprintf(" %3d%%", int(ratio*100)))
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
