package bibtex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sample = `% lab bibliography
@string{nips = "Advances in Neural Information Processing Systems"}

@article{Smit20,
  Author = {Smith, John and Doe, Jane},
  title = {The {DNA} of
     Memory},
  journal = "Journal of {N}euroscience",
  year = 2020,
  month = jan,
  pages = {1--10},
  Keywords = {memory}
}

@comment{ignored @article{Fake00, title = {no}} }

@inproceedings(Doe19,
  author = {Doe, Jane},
  booktitle = nips # { 32},
  year = {2019},
)

@patent{Pate01, title = {Skipped}}
`

func TestParse(t *testing.T) {
	c, err := ParseString(sample)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := c.IDs(); !reflect.DeepEqual(got, []string{"Smit20", "Doe19"}) {
		t.Fatalf("IDs() = %v", got)
	}

	smit := c.Entries[0]
	tests := []struct {
		field string
		want  string
	}{
		{FieldAuthor, "Smith, John and Doe, Jane"},
		{FieldTitle, "The {DNA} of Memory"},
		{FieldJournal, "Journal of {N}euroscience"},
		{FieldYear, "2020"},
		{FieldMonth, "January"},
		{FieldPages, "1--10"},
		{"keywords", "memory"},
	}
	for _, tt := range tests {
		if got := smit.Get(tt.field); got != tt.want {
			t.Errorf("Smit20 %s = %q, want %q", tt.field, got, tt.want)
		}
	}
	if smit.Type != "article" {
		t.Errorf("Type = %q, want article", smit.Type)
	}

	doe := c.Entries[1]
	if doe.Type != "inproceedings" {
		t.Errorf("Type = %q, want inproceedings", doe.Type)
	}
	if want := "Advances in Neural Information Processing Systems 32"; doe.Booktitle != want {
		t.Errorf("Booktitle = %q, want %q", doe.Booktitle, want)
	}
}

func TestParse_DuplicateKeysKept(t *testing.T) {
	c, err := ParseString(`@article{A, title={one}} @article{A, title={two}}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	e, ok := c.Lookup("A")
	if !ok || e.Title != "two" {
		t.Errorf("Lookup(A) = %v, %v; want the last entry", e, ok)
	}
}

func TestParse_Aliases(t *testing.T) {
	c, err := ParseString(`@misc{X, authors = {Roe, R}, link = {https://example.org}}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e := c.Entries[0]
	if e.Author != "Roe, R" || e.URL != "https://example.org" {
		t.Errorf("got author %q url %q", e.Author, e.URL)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"unbalanced braces", "@article{A,\n title = {open\n", 2},
		{"missing equals", "@article{A,\n\n title {x}}", 3},
		{"unterminated quote", `@article{A, title = "open}`, 1},
		{"unterminated quote spanning lines", "@article{A,\n title = \"open\n\n more}", 2},
		{"unbalanced braces after macro", "@string{x = {y}}\n@article{A,\n\n title = x # {open {x}\n", 4},
		{"missing key", "@article{, title = {x}}", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.in)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
			if pe.Line != tt.line {
				t.Errorf("Line = %d, want %d", pe.Line, tt.line)
			}
		})
	}
}

func TestEntry_Fields(t *testing.T) {
	e := &Entry{Type: "article", ID: "A", Title: "T", Year: "2020"}
	e.Set("note", "n")

	if got, want := e.Fields(), []string{"note", "title", "year"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}

	e.Delete(FieldTitle)
	e.Delete("note")
	e.Delete(FieldID)
	if e.Has(FieldTitle) || e.Has("note") {
		t.Error("Delete() left fields behind")
	}
	if e.ID != "A" {
		t.Error("Delete(ID) removed the key")
	}
}

func TestEntry_Forced(t *testing.T) {
	tests := []struct {
		value string
		set   bool
		want  bool
	}{
		{set: false, want: false},
		{value: "", set: true, want: true},
		{value: "true", set: true, want: true},
		{value: "False", set: true, want: false},
		{value: "0", set: true, want: false},
		{value: " off ", set: true, want: false},
	}

	for _, tt := range tests {
		e := &Entry{ID: "A"}
		if tt.set {
			e.Set(FieldForce, tt.value)
		}
		if got := e.Forced(); got != tt.want {
			t.Errorf("Forced() with %q (set=%v) = %v, want %v", tt.value, tt.set, got, tt.want)
		}
	}
}

func TestEntry_CloneEqual(t *testing.T) {
	e := &Entry{Type: "article", ID: "A", Title: "T"}
	e.Set("note", "n")

	c := e.Clone()
	if !c.Equal(e) {
		t.Fatal("clone differs from original")
	}
	c.Set("note", "changed")
	if e.Get("note") != "n" {
		t.Error("Clone() shares Extra with the original")
	}
	if c.Equal(e) {
		t.Error("Equal() = true after change")
	}
}

func TestFormat(t *testing.T) {
	order := []string{FieldAuthor, FieldTitle, FieldYear}

	tests := []struct {
		name  string
		entry *Entry
		want  string
	}{
		{
			name:  "ordered fields",
			entry: &Entry{Type: "article", ID: "Smit20", Title: "T", Author: "John Smith", Year: "2020"},
			want:  "@article{Smit20,\n\tAuthor = {John Smith},\n\tTitle = {T},\n\tYear = {2020}}\n",
		},
		{
			name:  "fields outside order dropped",
			entry: &Entry{Type: "misc", ID: "X", Title: "T", Extra: map[string]string{"note": "n"}},
			want:  "@misc{X,\n\tTitle = {T}}\n",
		},
		{
			name:  "no fields",
			entry: &Entry{Type: "misc", ID: "X"},
			want:  "@misc{X,}\n",
		},
		{
			name:  "forced entry keeps everything",
			entry: &Entry{Type: "misc", ID: "X", Title: "T", Extra: map[string]string{"force": "true", "note": "n"}},
			want:  "@misc{X,\n\tTitle = {T},\n\tForce = {true},\n\tNote = {n}}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.entry, order); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	c, err := ParseString(sample)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	order := []string{FieldAuthor, FieldBooktitle, "keywords", FieldJournal, FieldMonth, FieldPages, FieldTitle, FieldYear}

	path := filepath.Join(t.TempDir(), "out.bib")
	if err := WriteFile(path, c.Entries, order); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	back, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if back.Len() != c.Len() {
		t.Fatalf("round trip Len() = %d, want %d", back.Len(), c.Len())
	}
	for i := range c.Entries {
		if !back.Entries[i].Equal(c.Entries[i]) {
			t.Errorf("entry %d changed:\n got %+v\nwant %+v", i, back.Entries[i], c.Entries[i])
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "}\n\n@inproceedings{Doe19,") {
		t.Errorf("entries not separated by a blank line:\n%s", data)
	}
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cdl.bib" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	c, err := Load(context.Background(), srv.URL+"/cdl.bib")
	if err != nil {
		t.Fatalf("Load(url) error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Load(url) Len() = %d, want 2", c.Len())
	}

	if _, err := Load(context.Background(), srv.URL+"/missing.bib"); err == nil {
		t.Error("Load(missing url) expected error")
	}

	path := filepath.Join(t.TempDir(), "local.bib")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load(path) error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Load(path) Len() = %d, want 2", c.Len())
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1234/ABC", "10.1234/abc"},
		{"https://doi.org/10.1234/abc", "10.1234/abc"},
		{"http://dx.doi.org/10.1234/abc", "10.1234/abc"},
		{"doi:10.1234/abc ", "10.1234/abc"},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
