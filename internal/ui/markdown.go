package ui

import (
	"github.com/charmbracelet/glamour"
)

const (
	defaultWrap = 80
	maxWrap     = 100
)

// RenderMarkdown renders issue and page bodies for the terminal. Agents
// and colorless output get the markdown back untouched, as does anything
// glamour fails on.
func RenderMarkdown(markdown string) string {
	if IsAgentMode() || !ShouldUseColor() {
		return markdown
	}
	out, err := renderMarkdown(markdown, wrapWidth(termWidth()))
	if err != nil {
		return markdown
	}
	return out
}

func wrapWidth(term int) int {
	switch {
	case term <= 0:
		return defaultWrap
	case term > maxWrap:
		return maxWrap
	}
	return term
}

func renderMarkdown(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}
