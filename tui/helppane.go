package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/models"
)

// HelpPaneModel shows the full declaration of one flag. Its content scrolls
// when the help text is longer than the pane.
type HelpPaneModel struct {
	cfg          *config.Config
	flag         models.Flag
	value        string
	set          bool
	width        int
	height       int
	scrollOffset int
	lines        []string
}

func NewHelpPaneModel(cfg *config.Config) *HelpPaneModel {
	return &HelpPaneModel{cfg: cfg}
}

// SetFlag shows f; value is what the composer holds for it when set is true.
func (h *HelpPaneModel) SetFlag(f models.Flag, value string, set bool) {
	h.flag = f
	h.value = value
	h.set = set
	h.scrollOffset = 0
	h.rebuildLines()
}

func (h *HelpPaneModel) SetSize(w, hi int) {
	h.width = w
	h.height = hi
	h.rebuildLines()
}

func (h *HelpPaneModel) ScrollUp(n int) {
	h.scrollOffset = max(h.scrollOffset-n, 0)
}

func (h *HelpPaneModel) ScrollDown(n int) {
	h.scrollOffset = min(h.scrollOffset+n, h.maxOffset())
}

func (h *HelpPaneModel) Top()    { h.scrollOffset = 0 }
func (h *HelpPaneModel) Bottom() { h.scrollOffset = h.maxOffset() }

func (h *HelpPaneModel) maxOffset() int {
	return max(len(h.lines)-h.viewportLines(), 0)
}

// viewportLines is the pane height less border and title.
func (h *HelpPaneModel) viewportLines() int {
	return max(h.height-3, 1)
}

func (h *HelpPaneModel) View() string {
	vp := h.viewportLines()
	end := min(h.scrollOffset+vp, len(h.lines))
	padded := make([]string, vp)
	copy(padded, h.lines[h.scrollOffset:end])

	title := "Help: " + h.flag.Name
	if len(h.lines) > vp {
		pct := min((h.scrollOffset+vp)*100/len(h.lines), 100)
		title += fmt.Sprintf(" [%d%%]", pct)
	}

	accent := lipgloss.Color(h.cfg.Colors.Selected)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Width(max(h.width-2, 1))
	content := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title) + "\n" + strings.Join(padded, "\n")
	return box.Render(content)
}

func (h *HelpPaneModel) rebuildLines() {
	if h.flag.Name == "" {
		h.lines = nil
		return
	}
	f := h.flag
	def := "<unset>"
	if f.Default != nil {
		def = fmt.Sprintf("%q", *f.Default)
	}
	lines := []string{
		"Flag:    " + f.Name,
		"Key:     " + f.Dest(),
		"Default: " + def,
	}
	if h.set {
		lines = append(lines, "Value:   "+fmt.Sprintf("%q", h.value))
	}
	if f.Help != "" {
		lines = append(lines, "")
		lines = append(lines, wordWrap(f.Help, h.width-4)...)
	}
	h.lines = lines
	h.scrollOffset = min(h.scrollOffset, h.maxOffset())
}

// wordWrap breaks s into lines no wider than width, splitting on spaces.
// Words longer than width get a line of their own.
func wordWrap(s string, width int) []string {
	words := strings.Fields(s)
	if width <= 0 || len(words) == 0 {
		return []string{s}
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
