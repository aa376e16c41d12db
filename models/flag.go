// Package models defines the flag declarations and parsed argument records
// shared by the schema, partition and render packages.
package models

import "strings"

// Flag declares a long-form option understood by the front end.
type Flag struct {
	Name string `json:"name" yaml:"name"`
	Help string `json:"help,omitempty" yaml:"help,omitempty"`
	// Default is nil when the flag is unset until given.
	Default *string `json:"default" yaml:"default"`
	// Switch flags take no separate value; a bare occurrence sets SwitchOn.
	Switch bool `json:"switch,omitempty" yaml:"switch,omitempty"`
}

// HasDefault reports whether the flag carries a default value.
func (f Flag) HasDefault() bool { return f.Default != nil }

// DefaultString returns the default value, or "" when unset.
func (f Flag) DefaultString() string {
	if f.Default == nil {
		return ""
	}
	return *f.Default
}

// Dest returns the destination key for the flag.
func (f Flag) Dest() string { return Dest(f.Name) }

// Equal reports whether two declarations are interchangeable.
func (f Flag) Equal(o Flag) bool {
	if f.Name != o.Name || f.Help != o.Help || f.Switch != o.Switch {
		return false
	}
	if f.Default == nil || o.Default == nil {
		return f.Default == nil && o.Default == nil
	}
	return *f.Default == *o.Default
}

// Dest converts a long flag name such as "--build-dir" to the key consumers
// read it under ("build_dir").
func Dest(name string) string {
	return strings.ReplaceAll(strings.TrimLeft(name, "-"), "-", "_")
}

// SwitchOn is the value a bare switch flag takes.
const SwitchOn = "true"

// String returns a pointer to s. Handy for building declarations with a default.
func String(s string) *string { return &s }
