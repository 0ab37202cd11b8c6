package main

import "github.com/charmbracelet/lipgloss"

const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// LabelStyle marks the verb of a status line, e.g. "Bundled".
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)
