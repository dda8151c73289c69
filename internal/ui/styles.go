package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorAccent  = lipgloss.Color("14")  // Light cyan - titles
	colorMuted   = lipgloss.Color("8")   // Dark gray - secondary text
	colorGood    = lipgloss.Color("42")  // Green - below threshold
	colorWarning = lipgloss.Color("214") // Yellow - just above threshold
	colorHot     = lipgloss.Color("208") // Orange - well above threshold
	colorAlarm   = lipgloss.Color("196") // Red - far above threshold
	colorSnooze  = lipgloss.Color("12")  // Blue - snoozing
	colorMarker  = lipgloss.Color("15")  // White - threshold marker
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	underlineStyle = lipgloss.NewStyle().Foreground(colorAccent)
	labelStyle     = lipgloss.NewStyle().Foreground(colorMuted).Width(14)
	valueStyle     = lipgloss.NewStyle().Bold(true)
	insertStyle    = lipgloss.NewStyle().Foreground(colorGood)
	deleteStyle    = lipgloss.NewStyle().Foreground(colorAlarm)
	alarmStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAlarm)
	snoozeStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorSnooze)
	goodStyle      = lipgloss.NewStyle().Foreground(colorGood)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	celebrateStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSnooze).Padding(1, 0)
	markerStyle    = lipgloss.NewStyle().Foreground(colorMarker)
)
