package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/models"
)

// ListModel is the scrollable, filterable list of flags.
type ListModel struct {
	flags   []models.Flag
	visible []int // indexes into flags after filtering
	cursor  int
	offset  int
	filter  string
	cfg     *config.Config
	width   int
	height  int
}

func NewListModel(flags []models.Flag, cfg *config.Config) *ListModel {
	l := &ListModel{flags: flags, cfg: cfg}
	l.rebuild()
	return l
}

func (l *ListModel) SetSize(w, h int) {
	l.width = w
	l.height = h
	l.scrollIntoView()
}

func (l *ListModel) SetFilter(f string) {
	l.filter = f
	l.cursor = 0
	l.offset = 0
	l.rebuild()
}

func (l *ListModel) Len() int { return len(l.visible) }

// Selected returns the flag under the cursor.
func (l *ListModel) Selected() (models.Flag, bool) {
	if l.cursor < len(l.visible) {
		return l.flags[l.visible[l.cursor]], true
	}
	return models.Flag{}, false
}

func (l *ListModel) Up() {
	if l.cursor > 0 {
		l.cursor--
		l.scrollIntoView()
	}
}

func (l *ListModel) Down() {
	if l.cursor < len(l.visible)-1 {
		l.cursor++
		l.scrollIntoView()
	}
}

func (l *ListModel) Top() {
	l.cursor = 0
	l.scrollIntoView()
}

func (l *ListModel) Bottom() {
	if len(l.visible) > 0 {
		l.cursor = len(l.visible) - 1
	}
	l.scrollIntoView()
}

func (l *ListModel) rebuild() {
	l.visible = l.visible[:0]
	needle := strings.ToLower(l.filter)
	for i, f := range l.flags {
		if needle == "" || strings.Contains(f.Name, needle) || strings.Contains(strings.ToLower(f.Help), needle) {
			l.visible = append(l.visible, i)
		}
	}
	if l.cursor >= len(l.visible) {
		l.cursor = 0
	}
}

func (l *ListModel) scrollIntoView() {
	rows := l.height
	if rows <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
}

// View renders the visible rows; values holds the flags set so far.
func (l *ListModel) View(values map[string]string) string {
	if len(l.visible) == 0 {
		return lipgloss.NewStyle().Faint(true).Render("(no flags match)")
	}
	flagStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(l.cfg.Colors.Flag))
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(l.cfg.Colors.Value))
	defStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(l.cfg.Colors.Default))
	selStyle := lipgloss.NewStyle().Reverse(true).Foreground(lipgloss.Color(l.cfg.Colors.Selected))

	rows := l.height
	if rows <= 0 {
		rows = len(l.visible)
	}
	end := min(l.offset+rows, len(l.visible))

	var sb strings.Builder
	for i := l.offset; i < end; i++ {
		f := l.flags[l.visible[i]]
		var val string
		if v, ok := values[f.Name]; ok {
			val = valueStyle.Render("= " + v)
		} else if f.Default != nil {
			val = defStyle.Render(fmt.Sprintf("(default %q)", *f.Default))
		} else {
			val = defStyle.Render("(unset)")
		}
		name := f.Name
		if i == l.cursor {
			name = selStyle.Render(name)
		} else {
			name = flagStyle.Render(name)
		}
		line := name + " " + val
		if l.width > 0 && lipgloss.Width(line) > l.width {
			line = truncate(line, l.width)
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
