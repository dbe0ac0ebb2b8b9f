// Package cliui provides reusable terminal UI helpers (spinners, step indicators,
// styled key/value output, markdown rendering) for studybot CLI commands.
package cliui

import (
	"fmt"
	"io"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	PromptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// KeyValue renders a right-aligned key and its value, or a dimmed
// "<not set>" for empty values.
func KeyValue(key string, width int, value string) string {
	k := KeyStyle.Render(fmt.Sprintf("%-*s", width, key))
	if value == "" {
		return fmt.Sprintf("  %s  %s", k, DimStyle.Render("<not set>"))
	}
	return fmt.Sprintf("  %s  %s", k, ValueStyle.Render(value))
}

// RenderMarkdown renders markdown for the terminal with glamour. On failure
// it returns content unchanged along with the error.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content, err
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
