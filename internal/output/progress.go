package output

import (
	"fmt"
	"strings"
)

// ActivityBar renders value as a share of peak.
// Example: "████████░░ 80"
func ActivityBar(value, peak, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if peak > 0 {
		filled = value * width / peak
	}
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case peak > 0 && value*10 >= peak*7:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case peak > 0 && value*10 >= peak*4:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleMuted.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%d", value)))
}

// TrendArrow returns a styled indicator for a change in commit count.
// More commits render green, fewer render red, no change is a dash.
func TrendArrow(delta int) string {
	switch {
	case delta > 0:
		return StyleSuccess.Render(fmt.Sprintf("▲ +%d", delta))
	case delta < 0:
		return StyleError.Render(fmt.Sprintf("▼ %d", delta))
	default:
		return StyleMuted.Render("─")
	}
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
