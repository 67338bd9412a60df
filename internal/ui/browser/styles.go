package browser

import "github.com/charmbracelet/lipgloss"

// Colors used in the browser.
var (
	colorAccent  = lipgloss.Color("62")  // Purple
	colorMuted   = lipgloss.Color("241") // Gray
	colorBorder  = lipgloss.Color("238")
	colorError   = lipgloss.Color("196")
	colorOnChip  = lipgloss.Color("255")
	colorSuccess = lipgloss.Color("78")
)

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(colorAccent)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true)

	groupStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	checkedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(1, 2)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)
)

// chip renders a tag value in its taxonomy color, filled when selected.
func chip(value, color string, selected bool) string {
	c := lipgloss.Color(color)
	if selected {
		return lipgloss.NewStyle().Background(c).Foreground(colorOnChip).Padding(0, 1).Render(value)
	}
	return lipgloss.NewStyle().Foreground(c).Padding(0, 1).Render(value)
}
