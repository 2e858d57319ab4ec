package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorHappy   = lipgloss.Color("#00D26A") // happy votes
	ColorSad     = lipgloss.Color("#FF4444") // sad votes
	ColorWarning = lipgloss.Color("#FFB800") // network mismatch
	ColorAddress = lipgloss.Color("#00B4D8") // addresses, hashes
	ColorMeta    = lipgloss.Color("#555555") // metadata
	ColorNetwork = lipgloss.Color("#9B5DE5") // network names
	ColorBorder  = lipgloss.Color("#1E3A5F") // chrome
)

// Base styles.
var (
	StyleHappy   = lipgloss.NewStyle().Foreground(ColorHappy).Bold(true)
	StyleSad     = lipgloss.NewStyle().Foreground(ColorSad).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleNetwork = lipgloss.NewStyle().Foreground(ColorNetwork).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorNetwork).
			Bold(true).
			MarginBottom(1)
)

// Happy formats a happy-side value.
func Happy(msg string) string { return StyleHappy.Render(msg) }

// Sad formats a sad-side value.
func Sad(msg string) string { return StyleSad.Render(msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("! " + msg) }

// ShortAddress truncates an address for display, 0x1234…abcd.
func ShortAddress(addr string) string {
	if len(addr) < 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
