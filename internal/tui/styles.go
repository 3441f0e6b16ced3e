package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/checkout/internal/ui"
	"github.com/muurk/checkout/internal/version"
)

// Application branding constants
const (
	AppName = "CHECKOUT"
	Tagline = "A secure and seamless payment experience."
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants
const (
	MinTerminalWidth = ui.MinTerminalWidth
	MaxContentWidth  = ui.MaxContentWidth
	LogPanelHeight   = 8 // Visible lines of the log panel
)

// Colors shared with the command-line output
var (
	PrimaryColor   = ui.PrimaryColor
	SecondaryColor = ui.SuccessColor
	WarningColor   = ui.WarningColor
	ErrorColor     = ui.ErrorColor
	TextColor      = ui.TextColor
	SubtleColor    = ui.MutedColor

	ButtonColor = lipgloss.Color("#2563EB") // Blue
)

var (
	// TitleStyle is the application title
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// SubtitleStyle is for taglines and secondary headings
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	// HelpStyle wraps the key help line
	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			PaddingTop(1)

	// SectionTitleStyle is for section headings ("Payment Selection")
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true)

	// LabelStyle is for form labels and key hints
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// ButtonStyle renders an enabled action
	ButtonStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(ButtonColor).
			Bold(true).
			Padding(0, 2)

	// DisabledButtonStyle renders an action that cannot run yet
	DisabledButtonStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Background(lipgloss.Color("#303030")).
				Padding(0, 2)

	// SpinnerStyle colors spinners
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// ReadyStyle marks the SDK as ready
	ReadyStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	// FailedStyle marks the SDK as failed
	FailedStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// StatusStyle is for the transient status line ("Logs copied!")
	StatusStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// LogLineStyle is for event log entries
	LogLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	// SelectedItemStyle highlights the selected gateway
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	// ItemStyle is for unselected gateways
	ItemStyle = lipgloss.NewStyle().
			Foreground(TextColor)
)

// bannerStyle returns a bordered banner in color
func bannerStyle(color lipgloss.Color, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(width - 2)
}

// sectionStyle returns the box around a page section
func sectionStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SubtleColor).
		Padding(0, 1).
		Width(width - 2)
}

// widgetStyle returns the box for one SDK widget region
func widgetStyle(width int, mounted bool) lipgloss.Style {
	color := SubtleColor
	if mounted {
		color = PrimaryColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(width)
}

// contentWidth clamps a terminal width to the supported range
func contentWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
