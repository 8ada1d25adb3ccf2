// Package theme provides lipgloss styles shared by all terminal output.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Palette colors. Kept as ANSI-256 values so output degrades cleanly on
// terminals without truecolor support.
var (
	colorPrimary   = lipgloss.Color("39")  // blue
	colorSecondary = lipgloss.Color("245") // gray
	colorSuccess   = lipgloss.Color("42")  // green
	colorWarning   = lipgloss.Color("214") // orange
	colorError     = lipgloss.Color("196") // red
	colorYellow    = lipgloss.Color("226")
	colorDim       = lipgloss.Color("240")
)

// Title returns the style for primary headings.
func Title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
}

// Subtitle returns the style for secondary headings.
func Subtitle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSecondary)
}

// Dim returns the style for de-emphasized text.
func Dim() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorDim)
}

// Highlight returns the style for emphasized inline text.
func Highlight() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
}

// Yellow returns the accent color used by warning text.
func Yellow() color.Color {
	return colorYellow
}

// StatusOK returns the style for success indicators.
func StatusOK() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSuccess)
}

// StatusWarn returns the style for warning indicators.
func StatusWarn() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorWarning)
}

// StatusError returns the style for failure indicators.
func StatusError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorError)
}

// StatusInfo returns the style for informational indicators.
func StatusInfo() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorPrimary)
}
