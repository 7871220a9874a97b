// Package textutil provides the string canonicalization primitives shared by
// the author, citation-key and title formatters.
package textutil

import "strings"

// RemoveMatchingBraces strips every brace pair whose nesting is balanced,
// joining the words inside each removed pair with join. Unbalanced braces
// are left where they are.
//
//	RemoveMatchingBraces("{van der Berg}", "")  // "vanderBerg"
//	RemoveMatchingBraces("{DNA} and }", " ")    // "DNA and }"
func RemoveMatchingBraces(s, join string) string {
	for {
		open, close := firstMatchedPair(s)
		if open < 0 {
			return s
		}
		inner := strings.Join(strings.Split(s[open+1:close], " "), join)
		s = s[:open] + inner + s[close+1:]
	}
}

// firstMatchedPair returns the byte offsets of the left-most '{' that has a
// matching '}', or (-1, -1) when there is none.
func firstMatchedPair(s string) (int, int) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		depth := 1
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				return i, j
			}
		}
	}
	return -1, -1
}

// IsFullyBraced reports whether a '{' appears before the first letter of w and
// a '}' after its last letter.
func IsFullyBraced(w string) bool {
	return BeforeLetters(w, '{') && AfterLetters(w, '}')
}

// BeforeLetters reports whether c occurs before the first ASCII letter in s.
func BeforeLetters(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if isASCIILetter(s[i]) {
			return false
		}
		if s[i] == c {
			return true
		}
	}
	return false
}

// AfterLetters reports whether c occurs after the last ASCII letter in s.
func AfterLetters(s string, c byte) bool {
	for i := len(s) - 1; i >= 0; i-- {
		if isASCIILetter(s[i]) {
			return false
		}
		if s[i] == c {
			return true
		}
	}
	return false
}
