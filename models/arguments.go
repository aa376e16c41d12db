package models

import (
	"bytes"
	"encoding/json"

	"go.yaml.in/yaml/v3"
)

// ResidualKey is the key the residual tokens are exposed under.
const ResidualKey = "build_script_impl_args"

// Arguments is the result of partitioning a command line: one value per
// registered flag plus the tokens nobody claimed. It is not modified after
// NewArguments returns.
type Arguments struct {
	flags    []Flag
	index    map[string]int
	values   []*string
	provided []bool
	residual []string
}

// NewArguments builds an Arguments record. Flags missing from values take
// their declared default.
func NewArguments(flags []Flag, values map[string]string, residual []string) *Arguments {
	a := &Arguments{
		flags:    make([]Flag, len(flags)),
		index:    make(map[string]int, len(flags)),
		values:   make([]*string, len(flags)),
		provided: make([]bool, len(flags)),
		residual: make([]string, len(residual)),
	}
	copy(a.flags, flags)
	copy(a.residual, residual)
	for i, f := range a.flags {
		a.index[f.Name] = i
		if v, ok := values[f.Name]; ok {
			a.values[i] = String(v)
			a.provided[i] = true
			continue
		}
		if f.Default != nil {
			a.values[i] = String(*f.Default)
		}
	}
	return a
}

// Get returns the value of the named flag and whether it is set.
func (a *Arguments) Get(name string) (string, bool) {
	v := a.Value(name)
	if v == nil {
		return "", false
	}
	return *v, true
}

// Value returns a copy of the named flag's value, nil when unset or unknown.
func (a *Arguments) Value(name string) *string {
	i, ok := a.index[name]
	if !ok || a.values[i] == nil {
		return nil
	}
	return String(*a.values[i])
}

// Has reports whether name is a registered flag.
func (a *Arguments) Has(name string) bool {
	_, ok := a.index[name]
	return ok
}

// Provided reports whether the named flag was given on the command line.
func (a *Arguments) Provided(name string) bool {
	i, ok := a.index[name]
	return ok && a.provided[i]
}

// Names returns the registered flag names in registration order.
func (a *Arguments) Names() []string {
	names := make([]string, len(a.flags))
	for i, f := range a.flags {
		names[i] = f.Name
	}
	return names
}

// Flags returns the declarations the record was built from.
func (a *Arguments) Flags() []Flag {
	out := make([]Flag, len(a.flags))
	copy(out, a.flags)
	return out
}

// Residual returns the unrecognized tokens in input order.
func (a *Arguments) Residual() []string {
	out := make([]string, len(a.residual))
	copy(out, a.residual)
	return out
}

// MarshalJSON encodes the record as an object keyed by destination name, in
// registration order, followed by the residual tokens.
func (a *Arguments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range a.flags {
		key, err := json.Marshal(f.Dest())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		buf.WriteByte(',')
	}
	key, _ := json.Marshal(ResidualKey)
	buf.Write(key)
	buf.WriteByte(':')
	res, err := json.Marshal(a.residual)
	if err != nil {
		return nil, err
	}
	buf.Write(res)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as an ordered mapping with the same keys as
// MarshalJSON. Unset values are null.
func (a *Arguments) MarshalYAML() (interface{}, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for i, f := range a.flags {
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		if v := a.values[i]; v != nil {
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: *v}
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Dest()}, val)
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, tok := range a.residual {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: tok})
	}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: ResidualKey}, seq)
	return doc, nil
}
