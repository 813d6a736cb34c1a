package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorDanger  = lipgloss.Color("#FF6B6B")
	colorWarning = lipgloss.Color("#FFD93D")
	colorSuccess = lipgloss.Color("#6BCF7F")
)

// styles renders for one writer; colors are dropped when it is not a terminal
type styles struct {
	errorLabel lipgloss.Style
	search     lipgloss.Style
	success    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		errorLabel: r.NewStyle().Foreground(colorDanger).Bold(true),
		search:     r.NewStyle().Foreground(colorWarning).Bold(true),
		success:    r.NewStyle().Foreground(colorSuccess),
	}
}
