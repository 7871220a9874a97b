// Package pages classifies page tokens and validates page ranges.
//
// A single page is one of six kinds, tried in order: integer ("12"),
// letter-prefixed ("S12"), conference code ("PS-2B.16"), DOI
// ("doi.org/10.1000/xyz"), arXiv identifier ("cs/0101001v2") or roman
// numeral ("iv", "MCMXC"). A range is two pages of the same kind joined by
// "--", with the left page strictly before the right.
package pages

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/contextlab/bibcheck/internal/textutil"
)

// Kind is the grammar a page token matched.
type Kind string

const (
	KindEmpty      Kind = "empty"
	KindInt        Kind = "int"
	KindPrefixed   Kind = "prefixed"
	KindConference Kind = "conference"
	KindDOI        Kind = "doi"
	KindArXiv      Kind = "arxiv"
	KindRoman      Kind = "roman"
	KindInvalid    Kind = "invalid"
)

// RangeSeparator joins the two ends of a canonical range.
const RangeSeparator = "--"

// Page is a classified page token. Prefix is set for prefixed and
// conference pages; Value holds the number for int, roman, prefixed and
// conference pages.
type Page struct {
	Kind   Kind
	Prefix string
	Value  int
}

var (
	prefixedRe   = regexp.MustCompile(`^([a-zA-Z]+)(\d+)$`)
	conferenceRe = regexp.MustCompile(`^([A-Z]{2}-[\dA-Z]{2}).(\d+)$`)
	doiRe        = regexp.MustCompile(`^doi\.org/[A-Za-z\d\-./]+$`)
	arxivRe      = regexp.MustCompile(`^(([a-z]{2,})/)?[\d.]+(v\d+)?$`)
	romanRe      = regexp.MustCompile(`^M{0,3}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)
)

// Classify reports whether tok is a valid single page and which kind it is.
func Classify(tok string) (Page, bool) {
	if tok == "" {
		return Page{Kind: KindEmpty}, true
	}

	if isDigits(tok) {
		if v, err := strconv.Atoi(tok); err == nil {
			return Page{Kind: KindInt, Value: v}, true
		}
	}

	if m := prefixedRe.FindStringSubmatch(tok); m != nil {
		if v, err := strconv.Atoi(m[2]); err == nil {
			return Page{Kind: KindPrefixed, Prefix: m[1], Value: v}, true
		}
	}

	if m := conferenceRe.FindStringSubmatch(tok); m != nil {
		if v, err := strconv.Atoi(m[2]); err == nil {
			return Page{Kind: KindConference, Prefix: m[1], Value: v}, true
		}
	}

	if doiRe.MatchString(tok) {
		return Page{Kind: KindDOI}, true
	}

	if arxivRe.MatchString(tok) {
		return Page{Kind: KindArXiv}, true
	}

	upper := strings.ToUpper(tok)
	if romanRe.MatchString(upper) && !textutil.IsMixedCase(tok) {
		return Page{Kind: KindRoman, Value: romanValue(upper)}, true
	}

	return Page{Kind: KindInvalid}, false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

var romanDigits = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

func romanValue(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanDigits[s[i]]
		if i > 0 && v > romanDigits[s[i-1]] {
			total += v - 2*romanDigits[s[i-1]]
		} else {
			total += v
		}
	}
	return total
}

// Outcome tags the result of validating a pages field.
type Outcome int

const (
	// Valid means the token is acceptable; Suggestion is its canonical form.
	Valid Outcome = iota
	// Correctable means Suggestion is a safe replacement that itself validates.
	Correctable
	// Uncorrectable means no safe replacement exists.
	Uncorrectable
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Correctable:
		return "correctable"
	case Uncorrectable:
		return "uncorrectable"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the outcome of ValidateRange.
type Result struct {
	Original   string
	Suggestion string
	Outcome    Outcome
	Reason     string
}

// NeedsChange reports whether the field should be replaced by Suggestion.
func (r Result) NeedsChange() bool {
	return r.Outcome != Uncorrectable && r.Suggestion != r.Original
}

// invalidDashes are rejected outright and replaced with an ASCII hyphen.
var invalidDashes = []struct {
	r    rune
	name string
}{
	{'\u2013', "en-dash"},
	{'\u2014', "em-dash"},
	{'\u2212', "minus sign"},
	{'\u2010', "hyphen"},
	{'\u2011', "non-breaking hyphen"},
}

// ValidateRange validates a pages field. A suggestion is only Correctable
// when it passes validation itself.
//
//	ValidateRange("125-36")  // Correctable, "125--136"
//	ValidateRange("5–7")     // Correctable, "5-7"
//	ValidateRange("15--12")  // Uncorrectable
func ValidateRange(tok string) Result {
	ok, suggestion, reason := checkRange(tok)
	if ok {
		return Result{Original: tok, Suggestion: suggestion, Outcome: Valid}
	}
	if again, _, _ := checkRange(suggestion); again {
		return Result{Original: tok, Suggestion: suggestion, Outcome: Correctable, Reason: reason}
	}
	return Result{Original: tok, Suggestion: suggestion, Outcome: Uncorrectable, Reason: reason}
}

// checkRange returns whether tok is acceptable as is, its canonical or
// suggested form, and why it was rejected.
func checkRange(tok string) (bool, string, string) {
	for _, d := range invalidDashes {
		if strings.ContainsRune(tok, d.r) {
			return false, strings.ReplaceAll(tok, string(d.r), "-"), "contains " + d.name
		}
	}

	if _, ok := Classify(tok); ok {
		return true, tok, ""
	}

	var ends []string
	for _, s := range strings.Split(tok, "-") {
		if s = strings.TrimSpace(s); s != "" {
			ends = append(ends, s)
		}
	}
	joined := strings.Join(ends, RangeSeparator)
	if len(ends) != 2 {
		return false, joined, "not a two-page range"
	}
	if ends[0] == ends[1] {
		return false, ends[0], "range starts and ends on the same page"
	}

	left, ok1 := Classify(ends[0])
	right, ok2 := Classify(ends[1])
	if !ok1 || !ok2 || left.Kind != right.Kind {
		if left.Kind == KindPrefixed && right.Kind == KindInt {
			fixed := left.Prefix + strconv.Itoa(left.Value) + RangeSeparator +
				left.Prefix + strconv.Itoa(right.Value)
			return false, fixed, "right page lacks the left page's prefix"
		}
		return false, tok, fmt.Sprintf("cannot form a range from %s and %s pages", left.Kind, right.Kind)
	}

	switch left.Kind {
	case KindInt, KindRoman:
		if left.Value < right.Value {
			return true, joined, ""
		}
		if left.Kind == KindInt {
			l, r := strconv.Itoa(left.Value), strconv.Itoa(right.Value)
			if len(r) < len(l) {
				return false, l + RangeSeparator + l[:len(l)-len(r)] + r, "right page is abbreviated"
			}
		}
		return false, joined, "range is not increasing"
	case KindPrefixed, KindConference:
		if left.Prefix == right.Prefix && left.Value < right.Value {
			return true, joined, ""
		}
		return false, joined, "prefixes differ or range is not increasing"
	}
	return false, joined, fmt.Sprintf("%s pages cannot form a range", left.Kind)
}
