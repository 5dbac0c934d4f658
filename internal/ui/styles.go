// Package ui provides terminal styling, markdown rendering and paging for
// jc and bb. Colors follow the Ayu theme in light and dark variants.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ayu palette: https://terminalcolors.com/themes/ayu/
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// RenderMuted renders truncation markers and other secondary text.
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// StatusStyle picks a style for a Jira status category key, task status or
// pull request state.
func StatusStyle(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "done", "complete", "merged", "closed", "approved":
		return PassStyle
	case "indeterminate", "running", "enqueued", "active", "open", "cancel_requested":
		return AccentStyle
	case "failed", "dead", "declined":
		return FailStyle
	case "cancelled", "superseded", "future":
		return WarnStyle
	}
	return MutedStyle
}

// RenderStatus renders status with the style StatusStyle picks for it.
func RenderStatus(status string) string {
	return StatusStyle(status).Render(status)
}
