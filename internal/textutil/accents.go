package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// specialLetters have no canonical decomposition, so stripping combining
// marks does not reach an ASCII form for them.
var specialLetters = map[rune]string{
	'ł': "l", 'Ł': "L",
	'ø': "o", 'Ø': "O",
	'ı': "i",
	'þ': "th", 'Þ': "Th",
	'ð': "d", 'Ð': "D",
	'đ': "d", 'Đ': "D",
	'ß': "ss",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// latexMacro matches either a braced special-letter macro ({\l}, {\o}, {\i},
// {\t}) or a generic accent macro such as \'e, {\"o}, \v{c} or {\ss}. The
// letters the macro decorates are captured in the second group.
var latexMacro = regexp.MustCompile(
	"\\{\\\\([loitLO])\\}" +
		"|\\{?\\\\[`'^\"~=.uvHtcdbkr]?\\s?\\{?\\\\?(\\w*)\\}?",
)

// Transliterate maps accented Unicode letters and LaTeX accent macros to their
// closest plain-ASCII letters. Each macro is replaced as a whole span, so text
// on either side of it is untouched.
//
//	Transliterate(`Erd\H{o}s`)     // "Erdos"
//	Transliterate("Gödel")         // "Godel"
//	Transliterate(`{\l}ukasiewicz`) // "lukasiewicz"
func Transliterate(s string) string {
	return replaceMacros(foldUnicode(s))
}

func foldUnicode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := specialLetters[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	out, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		return b.String()
	}
	return out
}

type macroEdit struct {
	start, end int
	repl       string
}

func replaceMacros(s string) string {
	var edits []macroEdit
	for _, m := range latexMacro.FindAllStringSubmatchIndex(s, -1) {
		var repl string
		switch {
		case m[2] >= 0:
			repl = s[m[2]:m[3]]
		case m[4] >= 0:
			repl = s[m[4]:m[5]]
		}
		edits = append(edits, macroEdit{start: m[0], end: m[1], repl: repl})
	}
	if len(edits) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(s[last:e.start])
		b.WriteString(e.repl)
		last = e.end
	}
	b.WriteString(s[last:])
	return b.String()
}
