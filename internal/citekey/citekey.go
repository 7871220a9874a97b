// Package citekey derives canonical citation keys and checks collision
// suffixes.
//
// A base key is built from the first four letters of each surname plus the
// last two characters of the year: "Smit20", "SmitDoe19", "SmitEtal21".
// Entries whose base keys collide must carry the suffixes a, b, c, ... in
// order of appearance.
package citekey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/contextlab/bibcheck/internal/author"
	"github.com/contextlab/bibcheck/internal/textutil"
)

// EtAl replaces the second surname when there are three or more authors.
const EtAl = "Etal"

// SurnameLetters is how many letters of each surname enter a key.
const SurnameLetters = 4

var (
	// ErrAuthorMissing indicates an entry without author information.
	ErrAuthorMissing = errors.New("author information missing, no key generated")

	// ErrMultipleCorrections indicates two different corrections proposed
	// for the same key.
	ErrMultipleCorrections = errors.New("same key was corrected multiple times")
)

// Deriver builds base keys from author and year fields.
type Deriver struct {
	names *author.Normalizer
}

// NewDeriver returns a Deriver that parses names with n.
func NewDeriver(n *author.Normalizer) *Deriver {
	return &Deriver{names: n}
}

// Derive returns the base key for an " and "-joined author list and a year.
func (d *Deriver) Derive(authors, year string) (string, error) {
	if strings.TrimSpace(authors) == "" {
		return "", ErrAuthorMissing
	}

	yy := year
	if len(yy) > 2 {
		yy = yy[len(yy)-2:]
	}

	names := strings.Split(authors, author.Separator)
	first, err := d.surnameKey(names[0])
	if err != nil {
		return "", err
	}

	switch len(names) {
	case 1:
		return first + yy, nil
	case 2:
		second, err := d.surnameKey(names[1])
		if err != nil {
			return "", err
		}
		return first + second + yy, nil
	default:
		return first + EtAl + yy, nil
	}
}

func (d *Deriver) surnameKey(name string) (string, error) {
	s := textutil.Transliterate(name)
	s = strings.ReplaceAll(s, "-", "")
	s = textutil.RemoveMatchingBraces(s, "")

	s, err := d.names.Reformat(s)
	if err != nil {
		return "", err
	}
	last, err := d.names.LastName(s)
	if err != nil {
		return "", err
	}

	if r := []rune(last); len(r) > SurnameLetters {
		return string(r[:SurnameLetters]), nil
	}
	return last, nil
}

// SuffixSequence returns the first n collision suffixes: a, b, ..., z, aa,
// ab, ... A single key needs no suffix, so n <= 1 yields nil.
func SuffixSequence(n int) []string {
	if n <= 1 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = suffix(i)
	}
	return out
}

// suffix returns the i-th (0-based) string in bijective base-26.
func suffix(i int) string {
	var b []byte
	for k := i + 1; k > 0; k /= 26 {
		k--
		b = append([]byte{byte('a' + k%26)}, b...)
	}
	return string(b)
}

// SameBase reports whether one key is a prefix of the other, i.e. whether
// they differ only by a trailing suffix.
func SameBase(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	return strings.HasPrefix(b, a)
}

// Candidate pairs an entry's actual key with its derived base key.
type Candidate struct {
	ID   string
	Base string
}

// CheckSuffixes returns the target key for every candidate, in input order.
//
// Candidates sharing a base must use exactly the keys base+a, base+b, ...;
// any other key is assigned the next unused target in order of appearance.
// A candidate whose base is unique must equal its base. A key that would be
// corrected to two different targets yields ErrMultipleCorrections.
func CheckSuffixes(cands []Candidate) ([]string, error) {
	var order []string
	groups := make(map[string][]int)
	for i, c := range cands {
		if _, ok := groups[c.Base]; !ok {
			order = append(order, c.Base)
		}
		groups[c.Base] = append(groups[c.Base], i)
	}

	type fix struct{ id, target string }
	var fixes []fix
	checked := make(map[string]bool)

	for _, base := range order {
		idx := groups[base]
		if len(idx) < 2 {
			continue
		}

		targets := make(map[string]bool, len(idx))
		var want []string
		for _, s := range SuffixSequence(len(idx)) {
			targets[base+s] = true
			want = append(want, base+s)
		}

		actual := make(map[string]bool, len(idx))
		for _, i := range idx {
			actual[cands[i].ID] = true
		}
		var missing []string
		for _, w := range want {
			if !actual[w] {
				missing = append(missing, w)
			}
		}

		next := 0
		for _, i := range idx {
			id := cands[i].ID
			checked[id] = true
			if !targets[id] {
				fixes = append(fixes, fix{id: id, target: missing[next]})
				next++
			}
		}
	}

	for _, c := range cands {
		if !checked[c.ID] && c.ID != c.Base {
			fixes = append(fixes, fix{id: c.ID, target: c.Base})
		}
	}

	byID := make(map[string][]string)
	for _, f := range fixes {
		byID[f.id] = append(byID[f.id], f.target)
	}

	out := make([]string, len(cands))
	for i, c := range cands {
		switch corrections := byID[c.ID]; len(corrections) {
		case 0:
			out[i] = c.ID
		case 1:
			out[i] = corrections[0]
		default:
			return nil, fmt.Errorf("%w: %s", ErrMultipleCorrections, c.ID)
		}
	}
	return out, nil
}
