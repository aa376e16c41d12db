// Package schema holds the long-form flag declarations the front end
// recognizes, including the table of build-script-impl flags.
package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"go.yaml.in/yaml/v3"

	"github.com/aallbrig/buildshim/models"
)

var (
	// ErrConflictingFlag is returned when a name is registered twice with
	// different help text or default.
	ErrConflictingFlag = errors.New("conflicting flag declaration")
	// ErrInvalidFlagName is returned for names that are not long options.
	ErrInvalidFlagName = errors.New("invalid flag name")
)

//go:embed impl_flags.yaml
var implFlagsYAML []byte

// Schema is an ordered set of flag declarations with unique names. A Schema
// is never modified once built; With returns a new one.
type Schema struct {
	flags []models.Flag
	index map[string]int
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{index: map[string]int{}}
}

// With returns a schema holding the receiver's flags followed by decls.
//
// Registering a name again with an identical declaration is a no-op and is
// logged as a data-entry warning; a different declaration under the same name
// is an error.
func (s *Schema) With(decls ...models.Flag) (*Schema, error) {
	if s == nil {
		s = New()
	}
	out := &Schema{
		flags: make([]models.Flag, len(s.flags), len(s.flags)+len(decls)),
		index: make(map[string]int, len(s.flags)+len(decls)),
	}
	copy(out.flags, s.flags)
	for name, i := range s.index {
		out.index[name] = i
	}
	for _, f := range decls {
		if err := validName(f.Name); err != nil {
			return nil, err
		}
		if i, ok := out.index[f.Name]; ok {
			if !out.flags[i].Equal(f) {
				return nil, fmt.Errorf("%w: %s", ErrConflictingFlag, f.Name)
			}
			log.Warn().Str("flag", f.Name).Msg("duplicate flag registration ignored")
			continue
		}
		out.index[f.Name] = len(out.flags)
		out.flags = append(out.flags, f)
	}
	return out, nil
}

func validName(name string) error {
	if len(name) <= 2 || !strings.HasPrefix(name, "--") || strings.ContainsAny(name, "= \t") {
		return fmt.Errorf("%w: %q", ErrInvalidFlagName, name)
	}
	return nil
}

// Lookup returns the declaration registered under name.
func (s *Schema) Lookup(name string) (models.Flag, bool) {
	i, ok := s.index[name]
	if !ok {
		return models.Flag{}, false
	}
	return s.flags[i], true
}

// Flags returns the declarations in registration order.
func (s *Schema) Flags() []models.Flag {
	out := make([]models.Flag, len(s.flags))
	copy(out, s.flags)
	return out
}

// Len returns the number of registered flags.
func (s *Schema) Len() int { return len(s.flags) }

// Register returns base augmented with the build-script-impl flags. A nil
// base starts from an empty schema.
func Register(base *Schema) (*Schema, error) {
	decls, err := ImplFlags()
	if err != nil {
		return nil, err
	}
	return base.With(decls...)
}

// ImplFlags returns the embedded build-script-impl flag table.
func ImplFlags() ([]models.Flag, error) {
	decls, err := Decode(bytes.NewReader(implFlagsYAML))
	if err != nil {
		return nil, fmt.Errorf("embedded flag table: %w", err)
	}
	return decls, nil
}

// Decode reads a YAML sequence of flag declarations.
func Decode(r io.Reader) ([]models.Flag, error) {
	var decls []models.Flag
	if err := yaml.NewDecoder(r).Decode(&decls); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode flag table: %w", err)
	}
	return decls, nil
}

// Duplicates returns the names that occur more than once in decls, in the
// order their second occurrence appears.
func Duplicates(decls []models.Flag) []string {
	seen := map[string]int{}
	var dups []string
	for _, f := range decls {
		seen[f.Name]++
		if seen[f.Name] == 2 {
			dups = append(dups, f.Name)
		}
	}
	return dups
}

// FlagSet exports the schema on a pflag.FlagSet, for help output. Unset
// defaults become empty strings.
func (s *Schema) FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	for _, f := range s.flags {
		long := strings.TrimPrefix(f.Name, "--")
		if f.Switch {
			fs.Bool(long, false, f.Help)
			continue
		}
		fs.String(long, f.DefaultString(), f.Help)
	}
	return fs
}
