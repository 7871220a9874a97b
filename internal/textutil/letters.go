package textutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrTemplateMismatch indicates a forced-capitalization template whose
// letters disagree with the word it is applied to.
var ErrTemplateMismatch = errors.New("incompatible capitalization template")

// TemplateError carries the template and word that could not be merged.
type TemplateError struct {
	Template string
	Word     string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("capitalization template %q does not fit %q", e.Template, e.Word)
}

func (e *TemplateError) Unwrap() error {
	return ErrTemplateMismatch
}

// nonLetters is the punctuation removed before equality comparisons.
var nonLetters = strings.NewReplacer(
	",", "", ".", "", "!", "", "?", "", "'", "", `"`, "",
	"{", "", "}", "", "-", "", `\`, "", ":", "",
	"(", "", ")", "", "[", "", "]", "", "+", "", "/", "", "*", "",
)

// StripNonLetters removes the fixed punctuation set used for comparisons.
// It is never applied to values that are displayed.
func StripNonLetters(s string) string {
	return nonLetters.Replace(s)
}

// CharMatch compares two strings after trimming, case folding and
// punctuation stripping.
func CharMatch(x, y string) bool {
	x = strings.ToLower(strings.TrimSpace(x))
	y = strings.ToLower(strings.TrimSpace(y))
	return StripNonLetters(x) == StripNonLetters(y)
}

// StripLeadingTrailingNonLetters splits s into the run before its first ASCII
// letter, the core from the first to the last letter, and the trailing run.
// A token without letters is returned entirely as prefix.
func StripLeadingTrailingNonLetters(s string) (prefix, core, suffix string) {
	first := -1
	for i := 0; i < len(s); i++ {
		if isASCIILetter(s[i]) {
			first = i
			break
		}
	}
	if first < 0 {
		return s, "", ""
	}
	last := first
	for i := len(s) - 1; i >= first; i-- {
		if isASCIILetter(s[i]) {
			last = i
			break
		}
	}
	return s[:first], s[first : last+1], s[last+1:]
}

// InsertNonLetters lays the capitalization template x over the letters of y,
// keeping the template's punctuation and braces as well as any non-letters in
// y that the template lacks.
//
//	InsertNonLetters("{DNA}", "dna")    // "{DNA}"
//	InsertNonLetters("{U.S.}", "us")    // "{U.S.}"
//	InsertNonLetters("{NASA}", "n.a.s.a") // "{N.A.S.A}"
func InsertNonLetters(x, y string) (string, error) {
	var b strings.Builder
	i, j := 0, 0
	for i < len(x) && j < len(y) {
		xc, yc := x[i], y[j]
		switch {
		case lowerByte(xc) == lowerByte(yc):
			b.WriteByte(xc)
			i++
			j++
		case !isASCIILetter(xc):
			b.WriteByte(xc)
			i++
		case !isASCIILetter(yc):
			b.WriteByte(yc)
			j++
		default:
			return "", &TemplateError{Template: x, Word: y}
		}
	}
	if j < len(y) && StripNonLetters(y[j:]) == "" {
		b.WriteString(y[j:])
	}
	if i < len(x) && StripNonLetters(x[i:]) == "" {
		b.WriteString(x[i:])
	}
	return b.String(), nil
}

// Capitalize upper-cases the first letter of s and lower-cases the rest.
// Leading non-letters are kept.
func Capitalize(s string) string {
	lower := strings.ToLower(s)
	for i, r := range lower {
		if unicode.IsLetter(r) {
			return lower[:i] + string(unicode.ToUpper(r)) + lower[i+utf8.RuneLen(r):]
		}
	}
	return lower
}

// IsUpper reports whether s has no lower-case runes, i.e. s == upper(s).
func IsUpper(s string) bool {
	return strings.ToUpper(s) == s
}

// IsMixedCase reports whether s is neither entirely lower nor entirely upper case.
func IsMixedCase(s string) bool {
	return !(strings.ToLower(s) == s || strings.ToUpper(s) == s)
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func lowerByte(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
