// Package format applies the house capitalization rules to titles and venue
// names (journals, book titles, publishers and addresses).
//
// Titles are sentence case: every word is lower-cased except protected
// acronyms and proper nouns, brace-delimited spans, and words following
// terminal punctuation. Venues are title case with a short list of words kept
// in lower case.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/contextlab/bibcheck/internal/lookup"
	"github.com/contextlab/bibcheck/internal/textutil"
)

// ErrMismatchedBraces indicates a title with more closing than opening braces.
var ErrMismatchedBraces = errors.New("mismatched curly braces")

// Formatter formats titles and venue names. It is safe for concurrent use.
type Formatter struct {
	tables *lookup.Tables
}

// NewFormatter returns a Formatter that consults tables for forced
// capitalization and lower-case venue words.
func NewFormatter(tables *lookup.Tables) *Formatter {
	return &Formatter{tables: tables}
}

// Title returns title in sentence case.
func (f *Formatter) Title(title string) (string, error) {
	if title == "" {
		return "", nil
	}
	caps := f.tables.ForceCaps()

	if len(title) >= 2 && title[0] == '{' && title[len(title)-1] == '}' &&
		strings.Count(title, "{") == 1 && strings.Count(title, "}") == 1 {
		title = title[1 : len(title)-1]
	}
	title = strings.TrimSuffix(title, ".")

	words := strings.Split(title, " ")
	out := make([]string, 0, len(words))
	prev := ""
	depth := 0
	for _, w := range words {
		depth += strings.Count(w, "{")
		if depth > 0 {
			out = append(out, w)
			prev = w
			depth -= strings.Count(w, "}")
			continue
		}
		if depth < 0 {
			return "", fmt.Errorf("%w: %s", ErrMismatchedBraces, title)
		}

		switch {
		case strings.ToLower(w) == "a", textutil.IsFullyBraced(w):
		case strings.ContainsAny(w, "{}"):
		default:
			prefix, core, suffix := textutil.StripLeadingTrailingNonLetters(w)
			if core == "" {
				break
			}
			if form, ok := caps.Lookup(core); ok {
				braced, err := applyCaps(form, core)
				if err != nil {
					return "", err
				}
				w = prefix + braced + suffix
			} else if !endsSentence(prev) {
				w = strings.ToLower(w)
			}
		}
		out = append(out, w)
		prev = w
	}
	if depth < 0 {
		return "", fmt.Errorf("%w: %s", ErrMismatchedBraces, title)
	}

	var kept []string
	for _, w := range out {
		if w != "" {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return "", nil
	}
	if first := kept[0]; !strings.ContainsAny(first, "{}") && !caps.Contains(first) {
		kept[0] = textutil.Capitalize(first)
	}
	return strings.Join(kept, " "), nil
}

func endsSentence(w string) bool {
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?")
}

// applyCaps splices the required spelling form onto the letters of core and
// wraps it in braces.
func applyCaps(form, core string) (string, error) {
	if isWrapped(form) {
		return form, nil
	}
	return textutil.InsertNonLetters("{"+form+"}", textutil.RemoveMatchingBraces(core, " "))
}

func isWrapped(s string) bool {
	return len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}'
}

// Journal formats a journal or book title using the journal rename table.
func (f *Formatter) Journal(name string) (string, error) {
	return f.Venue(name, f.tables.JournalKey(), f.tables.ForceCaps())
}

// Publisher formats a publisher using the publisher rename table.
func (f *Formatter) Publisher(name string) (string, error) {
	return f.Venue(name, f.tables.PublisherKey(), f.tables.ForceCaps())
}

// Address formats an address using the address rename table, with address
// codes such as state abbreviations as the protected terms.
func (f *Formatter) Address(name string) (string, error) {
	return f.Venue(name, f.tables.AddressKey(), f.tables.AddressCodes())
}

// Venue returns name in title case. A full, case-insensitive match in key
// replaces the name before formatting; otherwise it is lower-cased outside
// braces. Words matching caps take their required spelling in braces; words
// and multi-word spans already wrapped in braces are kept; hyphenated words are formatted segment by segment; lower-case venue words
// stay lower case except at the start.
func (f *Formatter) Venue(name string, key lookup.RenameKey, caps lookup.CapsIndex) (string, error) {
	if corrected, ok := key.Lookup(name); ok {
		name = corrected
	} else {
		name = lowerOutsideBraces(name)
	}

	words := strings.Split(name, " ")
	depth := 0
	for i, w := range words {
		opened, closed := strings.Count(w, "{"), strings.Count(w, "}")
		if depth > 0 || opened > closed {
			// Inside a braced span that covers several words.
			depth = max(depth+opened-closed, 0)
			continue
		}

		braced := textutil.IsFullyBraced(w)
		inner := w
		if braced {
			inner = textutil.RemoveMatchingBraces(w, " ")
		}
		prefix, core, suffix := textutil.StripLeadingTrailingNonLetters(inner)
		if core == "" {
			continue
		}

		if form, ok := caps.Lookup(core); ok {
			c, err := applyCaps(form, core)
			if err != nil {
				return "", err
			}
			words[i] = prefix + c + suffix
			continue
		}
		if braced {
			continue
		}

		words[i] = textutil.Capitalize(w)
		if strings.Contains(w, "-") {
			segs := strings.Split(w, "-")
			for j, seg := range segs {
				s, err := f.Venue(seg, key, caps)
				if err != nil {
					return "", err
				}
				segs[j] = s
			}
			words[i] = strings.Join(segs, "-")
		}
		if i > 0 && f.tables.IsUncap(w) {
			words[i] = strings.ToLower(words[i])
		}
	}
	return strings.Join(words, " "), nil
}

// lowerOutsideBraces lower-cases every character that is not inside a
// brace-delimited span.
func lowerOutsideBraces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	start := 0
	flush := func(end int) {
		if depth == 0 {
			b.WriteString(strings.ToLower(s[start:end]))
		} else {
			b.WriteString(s[start:end])
		}
		start = end
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			flush(i)
			depth++
		case '}':
			flush(i)
			if depth > 0 {
				depth--
			}
		}
	}
	flush(len(s))
	return b.String()
}
