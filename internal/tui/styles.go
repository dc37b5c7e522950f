package tui

import "github.com/charmbracelet/lipgloss"

// 256-color palette shared by both panels.
var (
	colorAccent = lipgloss.Color("12")  // blue: prompt, bars, focused panel
	colorAmount = lipgloss.Color("10")  // green: totals
	colorMuted  = lipgloss.Color("240") // gray: days, devices, hints
	colorCursor = lipgloss.Color("11")  // yellow: selected entity
	colorFrame  = lipgloss.Color("238")
	colorText   = lipgloss.Color("252")
)

// filter line
var (
	styleInputPrompt = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleInput       = styleInputPrompt
)

// entity list
var (
	styleListSelected = lipgloss.NewStyle().Foreground(colorCursor).Bold(true)
	styleListNormal   = lipgloss.NewStyle().Foreground(colorText)
	styleTotal        = lipgloss.NewStyle().Foreground(colorAmount)
	styleDays         = lipgloss.NewStyle().Foreground(colorMuted)
	styleNoMatches    = lipgloss.NewStyle().Foreground(colorMuted).Align(lipgloss.Center, lipgloss.Center)
)

// daily rows of the selected entity
var (
	styleTitle   = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	styleBar     = lipgloss.NewStyle().Foreground(colorAccent)
	styleZeroDay = lipgloss.NewStyle().Foreground(colorMuted)
	styleDevice  = lipgloss.NewStyle().Foreground(colorMuted)
)

// frames and status bar
var (
	stylePanelBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFrame)
	styleActiveBorder = stylePanelBorder.BorderForeground(colorAccent)
	styleStatusBar    = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	styleHelpKey      = lipgloss.NewStyle().Foreground(colorText)
	styleSortMode     = lipgloss.NewStyle().Foreground(colorAmount)
)
