package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aallbrig/buildshim/config"
)

// PreviewModel shows the command line composed so far.
type PreviewModel struct {
	cfg *config.Config
}

func NewPreviewModel(cfg *config.Config) *PreviewModel {
	return &PreviewModel{cfg: cfg}
}

func (p *PreviewModel) View(width int, tokens []string) string {
	cmdStyle := lipgloss.NewStyle().Bold(true)
	tokStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(p.cfg.Colors.Value))

	parts := []string{cmdStyle.Render(Program)}
	for _, t := range tokens {
		parts = append(parts, tokStyle.Render(ShellQuote(t)))
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#555555")).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.Join(parts, " "))
}

// Program prefixes the composed command line.
const Program = "buildshim run"

// CommandLine joins tokens into a copy-pasteable shell command.
func CommandLine(tokens []string) string {
	parts := []string{Program}
	for _, t := range tokens {
		parts = append(parts, ShellQuote(t))
	}
	return strings.Join(parts, " ")
}

// ShellQuote single-quotes s when a POSIX shell would otherwise split or
// expand it.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_=./,:+@%", r):
		default:
			safe = false
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
