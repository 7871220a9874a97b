package textutil

import (
	"errors"
	"testing"
)

func TestRemoveMatchingBraces(t *testing.T) {
	tests := []struct {
		name string
		in   string
		join string
		want string
	}{
		{"no braces", "plain text", "", "plain text"},
		{"single pair joined", "{van der Berg}", "", "vanderBerg"},
		{"single pair spaced", "{van der Berg}", " ", "van der Berg"},
		{"nested", "a {b {c} d} e", " ", "a b c d e"},
		{"two pairs", "{A} and {B}", "", "A and B"},
		{"unbalanced open", "{abc", "", "{abc"},
		{"unbalanced close", "abc}", "", "abc}"},
		{"closing before opening", "}{", "", "}{"},
		{"balanced after unbalanced", "{ x {y}", "", "{ x y"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveMatchingBraces(tt.in, tt.join); got != tt.want {
				t.Errorf("RemoveMatchingBraces(%q, %q) = %q, want %q", tt.in, tt.join, got, tt.want)
			}
		})
	}
}

func TestStripNonLetters(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"J.R.", "JR"},
		{"{DNA}", "DNA"},
		{`O'Brien-Smith`, "OBrienSmith"},
		{"(a+b)/c*[d]:e?!", "abcde"},
		{"no change", "no change"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripNonLetters(tt.in); got != tt.want {
				t.Errorf("StripNonLetters(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCharMatch(t *testing.T) {
	if !CharMatch(" {DNA}. ", "dna") {
		t.Error("CharMatch should ignore braces, case and surrounding space")
	}
	if CharMatch("DNA", "RNA") {
		t.Error("CharMatch(DNA, RNA) = true, want false")
	}
}

func TestTransliterate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Smith", "Smith"},
		{"unicode umlaut", "Gödel", "Godel"},
		{"unicode acute", "José", "Jose"},
		{"unicode stroke", "Łukasiewicz", "Lukasiewicz"},
		{"unicode slashed o", "Sørensen", "Sorensen"},
		{"unicode sharp s", "Strauß", "Strauss"},
		{"latex acute", `Jos\'e`, "Jose"},
		{"latex braced umlaut", `G{\"o}del`, "Godel"},
		{"latex caron with argument", `\v{C}ech`, "Cech"},
		{"latex hungarian umlaut", `Erd\H{o}s`, "Erdos"},
		{"latex special l", `{\l}ukasiewicz`, "lukasiewicz"},
		{"latex special o", `S{\o}rensen`, "Sorensen"},
		{"latex special dotless i", `Y{\i}lmaz`, "Yilmaz"},
		{"macro keeps neighbours", `a\'eb c`, "aeb c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transliterate(tt.in); got != tt.want {
				t.Errorf("Transliterate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripLeadingTrailingNonLetters(t *testing.T) {
	tests := []struct {
		in                   string
		prefix, core, suffix string
	}{
		{"(DNA),", "(", "DNA", "),"},
		{"word", "", "word", ""},
		{"{a.b}.", "{", "a.b", "}."},
		{"123", "123", "", ""},
		{"", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, c, s := StripLeadingTrailingNonLetters(tt.in)
			if p != tt.prefix || c != tt.core || s != tt.suffix {
				t.Errorf("StripLeadingTrailingNonLetters(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.in, p, c, s, tt.prefix, tt.core, tt.suffix)
			}
		})
	}
}

func TestInsertNonLetters(t *testing.T) {
	tests := []struct {
		template string
		word     string
		want     string
	}{
		{"{DNA}", "dna", "{DNA}"},
		{"{U.S.}", "us", "{U.S.}"},
		{"{NASA}", "n.a.s.a", "{N.A.S.A}"},
		{"{RNA}", "rna-", "{RNA}-"},
		{"{iPhone}", "IPHONE", "{iPhone}"},
	}

	for _, tt := range tests {
		t.Run(tt.template+"/"+tt.word, func(t *testing.T) {
			got, err := InsertNonLetters(tt.template, tt.word)
			if err != nil {
				t.Fatalf("InsertNonLetters() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("InsertNonLetters(%q, %q) = %q, want %q", tt.template, tt.word, got, tt.want)
			}
		})
	}
}

func TestInsertNonLetters_Mismatch(t *testing.T) {
	_, err := InsertNonLetters("{DNA}", "rna")
	if err == nil {
		t.Fatal("InsertNonLetters() expected error for mismatched letters")
	}
	if !errors.Is(err, ErrTemplateMismatch) {
		t.Errorf("error should wrap ErrTemplateMismatch, got %v", err)
	}
	var tErr *TemplateError
	if !errors.As(err, &tErr) || tErr.Word != "rna" {
		t.Errorf("error should be a *TemplateError for word rna, got %#v", err)
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nature", "Nature"},
		{"NATURE", "Nature"},
		{"(applied", "(Applied"},
		{"", ""},
		{"123", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Capitalize(tt.in); got != tt.want {
				t.Errorf("Capitalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBracePredicates(t *testing.T) {
	if !IsFullyBraced("{DNA}") {
		t.Error(`IsFullyBraced("{DNA}") = false`)
	}
	if !IsFullyBraced("({DNA}),") {
		t.Error(`IsFullyBraced("({DNA}),") = false`)
	}
	if IsFullyBraced("{DNA") {
		t.Error(`IsFullyBraced("{DNA") = true`)
	}
	if IsFullyBraced("D{NA}") {
		t.Error(`IsFullyBraced("D{NA}") = true`)
	}
}

func TestCaseHelpers(t *testing.T) {
	if !IsUpper("AB-C") || IsUpper("Ab") {
		t.Error("IsUpper misclassified input")
	}
	if !IsMixedCase("Mc") || IsMixedCase("mc") || IsMixedCase("MC") {
		t.Error("IsMixedCase misclassified input")
	}
}
