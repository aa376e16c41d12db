// Package render formats parsed arguments and flag tables for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"

	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/models"
)

// Options controls rendering behavior.
type Options struct {
	Filter       string // substring a flag name must contain
	ProvidedOnly bool   // only flags given on the command line
	NoColor      bool
	Output       string // text, json, yaml
	Colors       config.ColorScheme
}

// DefaultOptions returns rendering options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Output: config.OutputText,
		Colors: config.DefaultColors(),
	}
}

// Renderer renders arguments and flag tables.
type Renderer struct {
	opts   Options
	styles styles
}

type styles struct {
	flag     lipgloss.Style
	value    lipgloss.Style
	def      lipgloss.Style
	unset    lipgloss.Style
	residual lipgloss.Style
	invalid  lipgloss.Style
	heading  lipgloss.Style
	dim      lipgloss.Style
}

// New creates a Renderer with the given options.
func New(opts Options) *Renderer {
	r := &Renderer{opts: opts}
	if opts.NoColor {
		plain := lipgloss.NewStyle()
		r.styles = styles{
			flag: plain, value: plain, def: plain, unset: plain,
			residual: plain, invalid: plain, heading: plain, dim: plain,
		}
	} else {
		r.styles = styles{
			flag:     lipgloss.NewStyle().Foreground(lipgloss.Color(opts.Colors.Flag)),
			value:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(opts.Colors.Value)),
			def:      lipgloss.NewStyle().Foreground(lipgloss.Color(opts.Colors.Default)),
			unset:    lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color(opts.Colors.Unset)),
			residual: lipgloss.NewStyle().Foreground(lipgloss.Color(opts.Colors.Residual)),
			invalid:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(opts.Colors.Invalid)),
			heading:  lipgloss.NewStyle().Bold(true),
			dim:      lipgloss.NewStyle().Faint(true),
		}
	}
	return r
}

const unsetText = "<unset>"

// Arguments writes a parsed argument record to w.
func (r *Renderer) Arguments(w io.Writer, args *models.Arguments) error {
	switch r.opts.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(args)
	case config.OutputYAML:
		return encodeYAML(w, args)
	case config.OutputText, "":
		r.argumentsText(w, args)
		return nil
	default:
		return fmt.Errorf("%w: %s", config.ErrUnknownOutput, r.opts.Output)
	}
}

func (r *Renderer) argumentsText(w io.Writer, args *models.Arguments) {
	names := r.filtered(args.Names(), args.Provided)
	width := nameWidth(names)
	for _, name := range names {
		var val string
		switch v, ok := args.Get(name); {
		case !ok:
			val = r.styles.unset.Render(unsetText)
		case args.Provided(name):
			val = r.styles.value.Render(quote(v))
		default:
			val = r.styles.def.Render(quote(v))
		}
		fmt.Fprintf(w, "%s  %s\n", r.styles.flag.Render(pad(name, width)), val)
	}

	residual := args.Residual()
	fmt.Fprintln(w, r.styles.heading.Render(fmt.Sprintf("%s (%d):", models.ResidualKey, len(residual))))
	for _, tok := range residual {
		fmt.Fprintln(w, "  "+r.styles.residual.Render(tok))
	}
}

// Flags writes a flag table to w.
func (r *Renderer) Flags(w io.Writer, flags []models.Flag) error {
	flags = r.filterFlags(flags)
	switch r.opts.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(flags)
	case config.OutputYAML:
		return encodeYAML(w, flags)
	case config.OutputText, "":
		r.flagsText(w, flags)
		return nil
	default:
		return fmt.Errorf("%w: %s", config.ErrUnknownOutput, r.opts.Output)
	}
}

func (r *Renderer) flagsText(w io.Writer, flags []models.Flag) {
	for _, f := range flags {
		def := r.styles.unset.Render(unsetText)
		if f.Default != nil {
			def = r.styles.def.Render(quote(*f.Default))
		}
		fmt.Fprintf(w, "%s  %s\n", r.styles.flag.Render(f.Name), def)
		if f.Help != "" {
			fmt.Fprintln(w, "    "+r.styles.dim.Render(f.Help))
		}
	}
}

// Rejection writes a validation failure message.
func (r *Renderer) Rejection(w io.Writer, msg string) {
	fmt.Fprintln(w, r.styles.invalid.Render("rejected: ")+msg)
}

// CheckResult is build-script-impl's verdict on a set of residual arguments.
type CheckResult struct {
	Impl    string   `json:"impl" yaml:"impl"`
	Args    []string `json:"args" yaml:"args"`
	OK      bool     `json:"ok" yaml:"ok"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Check writes a validation verdict to w.
func (r *Renderer) Check(w io.Writer, res CheckResult) error {
	if res.Args == nil {
		res.Args = []string{}
	}
	switch r.opts.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case config.OutputYAML:
		return encodeYAML(w, res)
	case config.OutputText, "":
		if !res.OK {
			r.Rejection(w, res.Message)
			return nil
		}
		fmt.Fprintf(w, "%s %d argument(s) accepted by %s\n", r.styles.value.Render("ok:"), len(res.Args), res.Impl)
		return nil
	default:
		return fmt.Errorf("%w: %s", config.ErrUnknownOutput, r.opts.Output)
	}
}

func (r *Renderer) filtered(names []string, provided func(string) bool) []string {
	out := names[:0:0]
	for _, n := range names {
		if r.opts.ProvidedOnly && !provided(n) {
			continue
		}
		if r.opts.Filter != "" && !strings.Contains(n, r.opts.Filter) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (r *Renderer) filterFlags(flags []models.Flag) []models.Flag {
	if r.opts.Filter == "" {
		return flags
	}
	out := make([]models.Flag, 0, len(flags))
	for _, f := range flags {
		if strings.Contains(f.Name, r.opts.Filter) || strings.Contains(strings.ToLower(f.Help), strings.ToLower(r.opts.Filter)) {
			out = append(out, f)
		}
	}
	return out
}

func encodeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func nameWidth(names []string) int {
	w := 0
	for _, n := range names {
		if len(n) > w {
			w = len(n)
		}
	}
	return w
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// ArgumentsToString renders args to a string.
func ArgumentsToString(args *models.Arguments, opts Options) (string, error) {
	var sb strings.Builder
	if err := New(opts).Arguments(&sb, args); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FlagsToString renders a flag table to a string.
func FlagsToString(flags []models.Flag, opts Options) (string, error) {
	var sb strings.Builder
	if err := New(opts).Flags(&sb, flags); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Stats summarizes a parsed argument record.
type Stats struct {
	Registered int
	Provided   int
	Unset      int
	Residual   int
}

// Collect gathers stats from args.
func Collect(args *models.Arguments) Stats {
	s := Stats{Residual: len(args.Residual())}
	for _, n := range args.Names() {
		s.Registered++
		if args.Provided(n) {
			s.Provided++
		}
		if _, ok := args.Get(n); !ok {
			s.Unset++
		}
	}
	return s
}
