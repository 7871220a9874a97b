package author

import (
	"errors"
	"strings"
	"testing"

	"github.com/contextlab/bibcheck/internal/lookup"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(lookup.New(lookup.Source{
		Prefixes: []string{"van", "von", "der", "de", "la"},
		Suffixes: []string{"jr", "sr", "ii", "iii", "iv"},
	}))
}

func TestReformat(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clumped initials with periods", "Smith, A.A.", "A A Smith"},
		{"clumped initials without periods", "Smith, AA", "A A Smith"},
		{"three initials", "Smith, ABC", "A B C Smith"},
		{"first middle last", "Smith, John Q.", "John Q Smith"},
		{"already ordered", "John Smith", "John Smith"},
		{"single initial kept", "Smith, J", "J Smith"},
		{"hyphenated initials", "Sartre, J.-P.", "J-P Sartre"},
		{"multi-word surname braced", "van der Berg, J", "J {van der Berg}"},
		{"already braced surname", "{van der Berg}, J", "J {van der Berg}"},
		{"suffix kept after surname", "Smith, Jr., John", "John Smith Jr"},
		{"roman suffix not unclumped", "Smith, III, John", "John Smith III"},
		{"mixed case untouched", "McDonald, Ronald", "Ronald McDonald"},
		{"braced institution untouched", "{NASA}", "{NASA}"},
		{"apostrophe untouched", "O'NEIL, T", "T O'NEIL"},
		{"dotted initials not a suffix", "Smith, J.R.", "J R Smith"},
		{"suffix with period", "Smith, John, Jr.", "John Smith Jr"},
		{"multiple authors", "Smith, J.R. and Doe, Jane", "J R Smith and Jane Doe"},
		{"extra spaces collapse", "John  Smith", "John Smith"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Reformat(tt.in)
			if err != nil {
				t.Fatalf("Reformat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Reformat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReformat_Idempotent(t *testing.T) {
	n := testNormalizer()
	inputs := []string{
		"Smith, A.A.",
		"van der Berg, J",
		"Smith, Jr., John and de la Cruz, M. and Doe, JANE Q.",
		"Sartre, J.-P.",
	}

	for _, in := range inputs {
		once, err := n.Reformat(in)
		if err != nil {
			t.Fatalf("Reformat(%q) error = %v", in, err)
		}
		twice, err := n.Reformat(once)
		if err != nil {
			t.Fatalf("Reformat(%q) error = %v", once, err)
		}
		if once != twice {
			t.Errorf("Reformat not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestReformat_Errors(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		in      string
		wantErr error
	}{
		{"Smith, John, Paul", ErrTooManyCommas},
		{"Jr., III", ErrNoNames},
		{"Doe, Jane and Smith, A, B", ErrTooManyCommas},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := n.Reformat(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Reformat(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			var nameErr *NameError
			if !errors.As(err, &nameErr) {
				t.Errorf("error should be a *NameError, got %T", err)
			}
		})
	}
}

func TestRearrange(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		in       string
		preserve bool
		want     string
	}{
		{"Smith, John", false, "John Smith"},
		{"Smith, J.", false, "J Smith"},
		{"Smith, J.", true, "J. Smith"},
		{"Smith, J.R.", true, "J.R. Smith"},
		{"Smith, J.R.", false, "JR Smith"},
		{"van der Berg, J", false, "J van der Berg"},
		{"van der Berg, J", true, "J {van der Berg}"},
		{"Smith, John,", true, "John Smith"},
		{"John Smith", true, "John Smith"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := n.Rearrange(tt.in, tt.preserve)
			if err != nil {
				t.Fatalf("Rearrange(%q, %v) error = %v", tt.in, tt.preserve, err)
			}
			if got != tt.want {
				t.Errorf("Rearrange(%q, %v) = %q, want %q", tt.in, tt.preserve, got, tt.want)
			}
		})
	}
}

func TestLastName(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		in   string
		want string
	}{
		{"Smith, John", "Smith"},
		{"John Smith", "Smith"},
		{"van der Berg, J", "vanderBerg"},
		{"J {van der Berg}", "vanderBerg"},
		{"Ludwig van Beethoven", "vanBeethoven"},
		{"John Smith Jr.", "Smith"},
		{"Smith, Jr., John", "Smith"},
		{"O'Brien, Pat", "OBrien"},
		{"Jean-Paul Sartre", "Sartre"},
		{"Smith-Jones, Ann", "SmithJones"},
		// An all-caps particle reads as initials, not as part of the surname.
		{"DE Smith", "Smith"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := n.LastName(tt.in)
			if err != nil {
				t.Fatalf("LastName(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("LastName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLastName_Empty(t *testing.T) {
	n := testNormalizer()
	if _, err := n.LastName("  "); !errors.Is(err, ErrNoNames) {
		t.Errorf("LastName(blank) error = %v, want ErrNoNames", err)
	}
}

func TestLastNames(t *testing.T) {
	n := testNormalizer()
	got, err := n.LastNames("Smith, John and Jane Doe and de la Cruz, Maria")
	if err != nil {
		t.Fatalf("LastNames() error = %v", err)
	}
	want := []string{"Smith", "Doe", "delaCruz"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("LastNames() = %v, want %v", got, want)
	}
}
