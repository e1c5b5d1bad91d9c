package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette: one lime accent plus status colours.
const (
	ColorLime     = "154"
	ColorLimeDim  = "106"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the styles used by Writer.
type Styles struct {
	Title    lipgloss.Style
	URL      lipgloss.Style
	Label    lipgloss.Style
	Rule     lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Progress lipgloss.Style
}

// DefaultStyles returns coloured styles bound to out's renderer.
func DefaultStyles(out io.Writer) Styles {
	r := lipgloss.NewRenderer(out)
	return Styles{
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		URL:      r.NewStyle().Underline(true).Foreground(lipgloss.Color(ColorLimeDim)),
		Label:    r.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Rule:     r.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Success:  r.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning:  r.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    r.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Progress: r.NewStyle().Foreground(lipgloss.Color(ColorLime)),
	}
}

// NoColorStyles returns styles that render text unchanged.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:    plain,
		URL:      plain,
		Label:    plain,
		Rule:     plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
		Progress: plain,
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(out io.Writer, noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles(out)
}
