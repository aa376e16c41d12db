package tui_test

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/models"
	"github.com/aallbrig/buildshim/tui"
)

func sampleFlags() []models.Flag {
	return []models.Flag{
		{Name: "--build-dir", Help: "out-of-tree build directory"},
		{Name: "--swift-build-type", Help: "the CMake build variant for Swift", Default: models.String("Debug")},
		{Name: "--extra-cmake-options", Help: "extra options to pass to CMake for all targets"},
		{Name: "--enable-asan", Help: "enable Address Sanitizer"},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *tui.Model, s string) {
	for _, r := range s {
		m.Update(keyRunes(string(r)))
	}
}

func newSizedModel() *tui.Model {
	m := tui.NewModel(sampleFlags(), config.DefaultConfig())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

// --- Model ---

func TestNewModel(t *testing.T) {
	m := tui.NewModel(sampleFlags(), config.DefaultConfig())
	if m == nil {
		t.Fatal("NewModel returned nil")
	}
	if len(m.Tokens()) != 0 {
		t.Errorf("Tokens = %v, want none", m.Tokens())
	}
}

func TestModel_QuitOnQ(t *testing.T) {
	m := newSizedModel()
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Error("expected quit command after 'q'")
	}
	if m.Accepted() {
		t.Error("q should not accept")
	}
}

func TestModel_EditValue(t *testing.T) {
	m := newSizedModel()
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "/tmp/build")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got, want := m.Tokens(), []string{"--build-dir=/tmp/build"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestModel_EditStartsFromDefault(t *testing.T) {
	m := newSizedModel()
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got, want := m.Tokens(), []string{"--swift-build-type=Debug"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestModel_EditCancel(t *testing.T) {
	m := newSizedModel()
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "abc")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.Tokens()) != 0 {
		t.Errorf("Tokens = %v after cancel, want none", m.Tokens())
	}
}

func TestModel_ClearValue(t *testing.T) {
	m := newSizedModel()
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "b")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRunes("x"))
	if len(m.Tokens()) != 0 {
		t.Errorf("Tokens = %v after clear, want none", m.Tokens())
	}
}

func TestModel_TokensInRegistrationOrder(t *testing.T) {
	m := newSizedModel()
	// set --enable-asan (last) first, then --build-dir (first)
	m.Update(keyRunes("G"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRunes("g"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "b")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	want := []string{"--build-dir=b", "--enable-asan=1"}
	if got := m.Tokens(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestModel_Filter(t *testing.T) {
	m := newSizedModel()
	m.Update(keyRunes("/"))
	typeText(m, "asan")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got, want := m.Tokens(), []string{"--enable-asan=1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestModel_Accept(t *testing.T) {
	m := newSizedModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	if cmd == nil {
		t.Error("expected quit command after ctrl+e")
	}
	if !m.Accepted() {
		t.Error("ctrl+e should accept")
	}
}

func TestModel_View_nonempty(t *testing.T) {
	m := newSizedModel()
	v := m.View()
	if v == "" {
		t.Error("View() returned empty string")
	}
	if !strings.Contains(v, "--build-dir") {
		t.Errorf("View() missing flag list:\n%s", v)
	}
	if !strings.Contains(v, tui.Program) {
		t.Errorf("View() missing preview:\n%s", v)
	}
}

// --- ListModel ---

func TestListModel_navigation(t *testing.T) {
	l := tui.NewListModel(sampleFlags(), config.DefaultConfig())
	l.SetSize(80, 2)
	if f, _ := l.Selected(); f.Name != "--build-dir" {
		t.Errorf("initial selected = %q", f.Name)
	}
	l.Up()
	if f, _ := l.Selected(); f.Name != "--build-dir" {
		t.Errorf("Up at top moved to %q", f.Name)
	}
	l.Down()
	l.Down()
	if f, _ := l.Selected(); f.Name != "--extra-cmake-options" {
		t.Errorf("after two Down = %q", f.Name)
	}
	l.Bottom()
	l.Down()
	if f, _ := l.Selected(); f.Name != "--enable-asan" {
		t.Errorf("Bottom = %q", f.Name)
	}
	v := l.View(nil)
	if strings.Contains(v, "--build-dir") {
		t.Errorf("scrolled view still shows first row:\n%s", v)
	}
}

func TestListModel_filterNoMatch(t *testing.T) {
	l := tui.NewListModel(sampleFlags(), config.DefaultConfig())
	l.SetFilter("no-such-flag")
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
	if _, ok := l.Selected(); ok {
		t.Error("Selected should report nothing")
	}
	if !strings.Contains(l.View(nil), "no flags match") {
		t.Error("expected empty-state message")
	}
}

// --- command line ---

func TestShellQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"--build-dir=/tmp/b", "--build-dir=/tmp/b"},
		{"", "''"},
		{"--cmake-generator=Unix Makefiles", "'--cmake-generator=Unix Makefiles'"},
		{"it's", `'it'\''s'`},
		{"${HOME}/src", "'${HOME}/src'"},
	}
	for _, tt := range tests {
		if got := tui.ShellQuote(tt.in); got != tt.want {
			t.Errorf("ShellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandLine(t *testing.T) {
	got := tui.CommandLine([]string{"--build-dir=/b", "--extra-cmake-options=-DX=1 -DY=2"})
	want := "buildshim run --build-dir=/b '--extra-cmake-options=-DX=1 -DY=2'"
	if got != want {
		t.Errorf("CommandLine = %q, want %q", got, want)
	}
}

// --- HelpPaneModel ---

func TestModel_HelpToggle(t *testing.T) {
	m := newSizedModel()
	m.Update(keyRunes("j")) // --swift-build-type
	m.Update(keyRunes("?"))
	v := m.View()
	for _, want := range []string{"Help: --swift-build-type", "Key:     swift_build_type", `Default: "Debug"`, "the CMake build variant for Swift"} {
		if !strings.Contains(v, want) {
			t.Errorf("help view missing %q:\n%s", want, v)
		}
	}
	// keys scroll the pane rather than moving the list
	m.Update(keyRunes("j"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "X")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got, want := m.Tokens(), []string{"--swift-build-type=DebugX"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestHelpPaneModel_scroll(t *testing.T) {
	h := tui.NewHelpPaneModel(config.DefaultConfig())
	h.SetSize(24, 6)
	h.SetFlag(models.Flag{Name: "--long", Help: strings.Repeat("word ", 40)}, "v", true)

	v := h.View()
	if !strings.Contains(v, "Help: --long [") {
		t.Errorf("expected scroll indicator:\n%s", v)
	}
	h.Bottom()
	if !strings.Contains(h.View(), "[100%]") {
		t.Errorf("expected 100%% after Bottom:\n%s", h.View())
	}
	h.ScrollUp(1000)
	if strings.Contains(h.View(), "[100%]") {
		t.Error("ScrollUp did not move back")
	}
}
