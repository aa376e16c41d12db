// Package tui implements the interactive Bubble Tea flag composer.
package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/models"
)

// copyFunc writes to the system clipboard; tests swap it out.
var copyFunc = clipboard.WriteAll

// Model is the root Bubble Tea model.
type Model struct {
	flags     []models.Flag
	cfg       *config.Config
	list      *ListModel
	preview   *PreviewModel
	help      *HelpPaneModel
	showHelp  bool
	values    map[string]string
	filter    textinput.Model
	filtering bool
	editor    textinput.Model
	editing   string // name of the flag being edited, "" when not editing
	width     int
	height    int
	statusMsg string
	quitting  bool
	accepted  bool
}

// NewModel creates a new root TUI model over flags.
func NewModel(flags []models.Flag, cfg *config.Config) *Model {
	filter := textinput.New()
	filter.Placeholder = "filter…"
	filter.CharLimit = 64

	editor := textinput.New()
	editor.CharLimit = 1024

	return &Model{
		flags:   flags,
		cfg:     cfg,
		list:    NewListModel(flags, cfg),
		preview: NewPreviewModel(cfg),
		help:    NewHelpPaneModel(cfg),
		values:  map[string]string{},
		filter:  filter,
		editor:  editor,
	}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.listHeight())
		m.help.SetSize(msg.Width, m.listHeight())
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.editing != "":
			return m.updateEditor(msg)
		case m.filtering:
			return m.updateFilter(msg)
		case m.showHelp:
			return m.updateHelp(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// ---------- key routing ----------

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+e":
		m.accepted = true
		m.quitting = true
		return m, tea.Quit

	case "ctrl+y":
		line := CommandLine(m.Tokens())
		if err := copyFunc(line); err != nil {
			m.statusMsg = "copy failed: " + err.Error()
		} else {
			m.statusMsg = "copied: " + line
		}
		return m, nil

	case "?":
		f, ok := m.list.Selected()
		if !ok {
			return m, nil
		}
		v, set := m.values[f.Name]
		m.help.SetFlag(f, v, set)
		m.showHelp = true
		return m, nil

	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case "up", "k":
		m.list.Up()
	case "down", "j":
		m.list.Down()
	case "home", "g":
		m.list.Top()
	case "end", "G":
		m.list.Bottom()

	case "enter":
		f, ok := m.list.Selected()
		if !ok {
			return m, nil
		}
		m.editing = f.Name
		if v, set := m.values[f.Name]; set {
			m.editor.SetValue(v)
		} else {
			m.editor.SetValue(f.DefaultString())
		}
		m.editor.CursorEnd()
		m.editor.Focus()
		return m, textinput.Blink

	case "x", "delete", "backspace":
		if f, ok := m.list.Selected(); ok {
			if _, set := m.values[f.Name]; set {
				delete(m.values, f.Name)
				m.statusMsg = "cleared " + f.Name
			}
		}
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.SetValue("")
		m.list.SetFilter("")
		fallthrough
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.list.SetFilter(m.filter.Value())
	return m, cmd
}

func (m *Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "?", "esc", "q":
		m.showHelp = false
	case "up", "k":
		m.help.ScrollUp(1)
	case "down", "j":
		m.help.ScrollDown(1)
	case "home", "g":
		m.help.Top()
	case "end", "G":
		m.help.Bottom()
	}
	return m, nil
}

func (m *Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = ""
		m.editor.Blur()
		m.statusMsg = "cancelled"
		return m, nil
	case "enter":
		m.values[m.editing] = m.editor.Value()
		m.statusMsg = "set " + m.editing
		m.editing = ""
		m.editor.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// Tokens returns the composed arguments in registration order, always in
// --name=value form so values starting with '-' survive partitioning.
func (m *Model) Tokens() []string {
	var tokens []string
	for _, f := range m.flags {
		if v, ok := m.values[f.Name]; ok {
			tokens = append(tokens, f.Name+"="+v)
		}
	}
	return tokens
}

// Accepted reports whether the user confirmed the composed command line.
func (m *Model) Accepted() bool { return m.accepted }

// ---------- layout ----------

func (m *Model) listHeight() int {
	// preview (2 lines incl. border) + help line + status bar
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	previewBar := m.preview.View(m.width, m.Tokens())
	body := m.list.View(m.values)
	if m.showHelp {
		body = m.help.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		previewBar,
		body,
		m.renderHelpLine(),
		m.renderStatusBar(),
	)
}

func (m *Model) renderHelpLine() string {
	f, ok := m.list.Selected()
	if !ok {
		return ""
	}
	return lipgloss.NewStyle().Faint(true).Render(truncate(f.Help, max(m.width, 20)))
}

func (m *Model) renderStatusBar() string {
	left := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d flags · %d set", m.list.Len(), len(m.flags), len(m.values)))

	var hint string
	switch {
	case m.editing != "":
		hint = m.editing + "=" + m.editor.View() + "  (Enter/Esc)"
	case m.filtering:
		hint = "filter: " + m.filter.View() + "  (Enter/Esc)"
	case m.showHelp:
		hint = "↑↓/jk:scroll  ?/Esc:close"
	case m.statusMsg != "":
		hint = m.statusMsg
		m.statusMsg = ""
	default:
		hint = "↑↓/jk:move  Enter:edit  x:clear  ?:help  /:filter  Ctrl+Y:copy  Ctrl+E:accept  q:quit"
	}
	right := lipgloss.NewStyle().Faint(true).Render(hint)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// Run starts the composer and returns the accepted tokens, or nil when the
// user quits without accepting.
func Run(flags []models.Flag, cfg *config.Config) ([]string, error) {
	m := NewModel(flags, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(*Model)
	if !ok || !fm.Accepted() {
		return nil, nil
	}
	return fm.Tokens(), nil
}
