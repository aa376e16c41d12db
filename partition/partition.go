// Package partition splits a command line into the flags a schema
// recognizes and the residual tokens destined for build-script-impl.
package partition

import (
	"regexp"
	"strings"

	"github.com/aallbrig/buildshim/models"
	"github.com/aallbrig/buildshim/schema"
)

// Separator is the old-style token that once divided front-end flags from
// build-script-impl flags. It is dropped wherever it appears:
//
//	build-script -RT -- --reconfigure
const Separator = "--"

// Parse partitions argv against s. It never fails: anything s does not
// recognize ends up in the residual, in input order.
func Parse(s *schema.Schema, argv []string) *models.Arguments {
	tokens := StripSeparators(argv)
	values := map[string]string{}
	var residual []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			residual = append(residual, tok)
			continue
		}
		if name, val, ok := strings.Cut(tok, "="); ok {
			if _, known := s.Lookup(name); known {
				values[name] = val
				continue
			}
			residual = append(residual, tok)
			continue
		}
		f, known := s.Lookup(tok)
		if !known {
			residual = append(residual, tok)
			continue
		}
		if f.Switch {
			values[tok] = models.SwitchOn
			continue
		}
		// A registered flag without a usable value is forwarded untouched so
		// build-script-impl reports it.
		if i+1 >= len(tokens) || looksLikeOption(tokens[i+1]) {
			residual = append(residual, tok)
			continue
		}
		values[tok] = tokens[i+1]
		i++
	}

	return models.NewArguments(s.Flags(), values, residual)
}

// StripSeparators returns argv without any Separator tokens.
func StripSeparators(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		if a != Separator {
			out = append(out, a)
		}
	}
	return out
}

var negativeNumber = regexp.MustCompile(`^-\d+$|^-\d*\.\d+$`)

func looksLikeOption(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	return !negativeNumber.MatchString(tok)
}
