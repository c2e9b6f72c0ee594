package ui

import "github.com/charmbracelet/lipgloss"

// ANSI escape codes for simple terminal output. The matrix renderer
// builds its rows from these directly so the output stays byte-stable
// across lipgloss profile changes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Red     = "\033[91m"
	Green   = "\033[92m"
	Yellow  = "\033[93m"
	Blue    = "\033[94m"
	Cyan    = "\033[96m"
	BoldRed = "\033[1;91m"
)

// Color palette
var (
	// Brand colors
	Primary   = lipgloss.Color("#00B4D8") // Teal - brand color
	Secondary = lipgloss.Color("#90E0EF") // Light cyan

	// Tier colors (matching the terminal matrix palette)
	Critical = lipgloss.Color("#FF3838") // Bright red - cross-zone reach
	Elevated = lipgloss.Color("#FFD93D") // Yellow - multi-segment reach
	Normal   = lipgloss.Color("#6BCB77") // Green - single segment

	// Status colors
	Success = lipgloss.Color("#00D26A") // Bright green
	Warning = lipgloss.Color("#FFB800") // Amber
	Error   = lipgloss.Color("#FF3838") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Pre-configured styles
var (
	// Banner style
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Version badge
	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Section headers
	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	// Configuration display
	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Width(15)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	// Status line styles
	PassStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Primary)

	// Report path announcement (the closing stdout line)
	ReportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF"))

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Help/footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)
)

// TierStyle returns the appropriate style for a host tier.
func TierStyle(tier string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch tier {
	case "critical":
		return base.Foreground(Critical)
	case "elevated":
		return base.Foreground(Elevated)
	case "normal":
		return base.Foreground(Normal)
	default:
		return base.Foreground(Muted)
	}
}

// PadRight pads s with spaces to the given printable width. Width is
// measured with lipgloss so embedded ANSI sequences do not count.
func PadRight(s string, width int) string {
	for lipgloss.Width(s) < width {
		s += " "
	}
	return s
}
