// Package author normalizes BibTeX author and editor fields.
//
// A field holds one or more names joined by " and ". Each name is rewritten
// to "First [Middle] Last [Suffix]" order with clumped initials split apart:
//
//	"Smith, A.A."         → "A A Smith"
//	"van der Berg, J"     → "J {van der Berg}"
//	"Smith, Jr., John"    → "John Smith Jr"
package author

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/contextlab/bibcheck/internal/lookup"
	"github.com/contextlab/bibcheck/internal/textutil"
)

// Separator joins multiple names in a single field.
const Separator = " and "

var (
	// ErrTooManyCommas indicates a name with more than one non-suffix comma segment.
	ErrTooManyCommas = errors.New("too many commas")

	// ErrNoNames indicates a name made up only of suffixes or punctuation.
	ErrNoNames = errors.New("no non-suffix names")
)

// NameError reports the name that could not be parsed.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Name)
}

func (e *NameError) Unwrap() error {
	return e.Err
}

// Normalizer rewrites names using a fixed set of prefix and suffix tables.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	tables *lookup.Tables
}

// NewNormalizer returns a Normalizer backed by tables.
func NewNormalizer(tables *lookup.Tables) *Normalizer {
	return &Normalizer{tables: tables}
}

// Reformat normalizes every name in an " and "-joined field.
func (n *Normalizer) Reformat(field string) (string, error) {
	if names := strings.Split(field, Separator); len(names) > 1 {
		out := make([]string, len(names))
		for i, name := range names {
			r, err := n.Reformat(name)
			if err != nil {
				return "", err
			}
			out[i] = r
		}
		return strings.Join(out, Separator), nil
	}

	name, err := n.Rearrange(field, true)
	if err != nil {
		return "", err
	}

	var tokens []string
	for _, tok := range strings.Split(name, " ") {
		clump := n.isClump(tok)
		tok = strings.ReplaceAll(tok, ".", "")
		if tok == "" {
			continue
		}
		if !clump {
			tokens = append(tokens, tok)
			continue
		}
		if strings.Contains(tok, "-") {
			segs := strings.Split(tok, "-")
			for i, seg := range segs {
				r, err := n.Reformat(seg)
				if err != nil {
					return "", err
				}
				segs[i] = r
			}
			tokens = append(tokens, strings.Join(segs, "-"))
			continue
		}
		for _, r := range tok {
			tokens = append(tokens, string(r))
		}
	}
	return strings.Join(tokens, " "), nil
}

// isClump reports whether tok, as written, is a run of upper-case initials
// such as "J.R." or "JR". Tokens with braces, macros or other punctuation
// besides periods and hyphens are left alone, as are recognized suffixes such
// as "III" or "Jr.".
func (n *Normalizer) isClump(tok string) bool {
	hasLetter := false
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			if !unicode.IsUpper(r) {
				return false
			}
			hasLetter = true
		case r == '-', r == '.':
		default:
			return false
		}
	}
	return hasLetter && !n.tables.IsSuffix(tok)
}

// Rearrange converts "Last, First [Middle] [, Suffix]" to
// "First [Middle] Last [Suffix]". Names without a comma are returned as they
// are, apart from trimming. With preserve set, a multi-word last name is
// wrapped in braces so later space splitting keeps it whole; without it every
// segment has its punctuation stripped.
func (n *Normalizer) Rearrange(name string, preserve bool) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}

	var names, suffixes []string
	for _, part := range strings.Split(name, ",") {
		part = strings.TrimSpace(part)
		suffix := n.tables.IsSuffix(part)
		if !preserve {
			part = textutil.StripNonLetters(part)
		}
		if part == "" {
			continue
		}
		if suffix {
			suffixes = append(suffixes, part)
			continue
		}
		names = append(names, part)
	}

	var out string
	switch len(names) {
	case 0:
		return "", &NameError{Name: name, Err: ErrNoNames}
	case 1:
		out = names[0]
	case 2:
		last := names[0]
		if preserve && strings.Contains(last, " ") && !wrapped(last) {
			last = "{" + last + "}"
		}
		out = names[1] + " " + last
	default:
		return "", &NameError{Name: name, Err: ErrTooManyCommas}
	}

	if len(suffixes) > 0 {
		out += " " + strings.Join(suffixes, " ")
	}
	return out, nil
}

func wrapped(s string) bool {
	return len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}'
}

// LastName returns the surname of a single name, with punctuation removed.
// A run of lower-case particles before the final word is absorbed into the
// surname, so "Ludwig van Beethoven" yields "vanBeethoven". Particles written
// entirely in upper case are treated as initials instead.
func (n *Normalizer) LastName(name string) (string, error) {
	r, err := n.Rearrange(name, false)
	if err != nil {
		return "", err
	}

	var tokens []string
	for _, tok := range strings.Split(r, " ") {
		if n.tables.IsSuffix(tok) {
			continue
		}
		if tok = textutil.StripNonLetters(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return "", &NameError{Name: name, Err: ErrNoNames}
	}

	var parts []string
	foundPrefix := false
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		if n.tables.IsPrefix(tok) && tok != strings.ToUpper(tok) {
			foundPrefix = true
		} else if foundPrefix || len(parts) > 0 {
			break
		}
		parts = append(parts, tok)
	}
	if !foundPrefix {
		return parts[0], nil
	}

	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return b.String(), nil
}

// LastNames returns the surname of every name in an " and "-joined field.
func (n *Normalizer) LastNames(field string) ([]string, error) {
	names := strings.Split(field, Separator)
	out := make([]string, 0, len(names))
	for _, name := range names {
		last, err := n.LastName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, last)
	}
	return out, nil
}
