package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDefault(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	if !tables.IsPrefix("van") || !tables.IsPrefix("Der") {
		t.Error("default prefixes should include van and der")
	}
	if !tables.IsSuffix("Jr.") || !tables.IsSuffix("III") {
		t.Error("default suffixes should include Jr and III")
	}
	if tables.IsSuffix("V") {
		t.Error("V must not be a suffix, it is a common initial")
	}
	if tables.IsSuffix("J.R.") || tables.IsSuffix("J.R") {
		t.Error("initials J.R. must not match the suffix Jr")
	}
	if !tables.IsUncap("of") {
		t.Error("default uncaps should include of")
	}
	if form, ok := tables.ForceCaps().Lookup("dna"); !ok || form != "DNA" {
		t.Errorf("ForceCaps().Lookup(dna) = %q, %v", form, ok)
	}
	if !tables.Keeps("author") || tables.Keeps("abstract") {
		t.Error("default keep fields should keep author and drop abstract")
	}
	if got, ok := tables.JournalKey().Lookup("PNAS"); !ok || !strings.HasPrefix(got, "Proceedings") {
		t.Errorf("JournalKey().Lookup(PNAS) = %q, %v", got, ok)
	}
}

func TestKeepFieldsSorted(t *testing.T) {
	tables := New(Source{KeepFields: []string{"year", "author", "title", "author"}})
	got := tables.KeepFields()
	want := []string{"author", "title", "year"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("KeepFields() = %v, want %v", got, want)
	}

	got[0] = "mutated"
	if tables.KeepFields()[0] != "author" {
		t.Error("KeepFields() should return a copy")
	}
}

func TestWithKeepFields(t *testing.T) {
	base := New(Source{KeepFields: []string{"author"}, Prefixes: []string{"van"}})
	over := base.WithKeepFields([]string{"title", " note ", "title"})

	if got := strings.Join(over.KeepFields(), ","); got != "note,title" {
		t.Errorf("KeepFields() = %s, want note,title", got)
	}
	if over.Keeps("author") || !base.Keeps("author") {
		t.Error("override leaked into the original tables")
	}
	if !over.IsPrefix("van") {
		t.Error("override lost the other tables")
	}
}

func TestCapsIndex(t *testing.T) {
	idx := NewCapsIndex([]string{"fMRI", "DNA", "Dna"})

	tests := []struct {
		word   string
		want   string
		wantOK bool
	}{
		{"fmri", "fMRI", true},
		{"F.M.R.I.", "fMRI", true},
		{"dna", "Dna", true}, // later duplicate wins
		{"rna", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, ok := idx.Lookup(tt.word)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Lookup(%q) = %q, %v, want %q, %v", tt.word, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestRenameKeyFullMatchOnly(t *testing.T) {
	key := NewRenameKey(map[string]string{"J Neurosci": "Journal of Neuroscience", "empty": ""})

	if got, ok := key.Lookup("j neurosci"); !ok || got != "Journal of Neuroscience" {
		t.Errorf("Lookup(j neurosci) = %q, %v", got, ok)
	}
	if _, ok := key.Lookup("j neurosci letters"); ok {
		t.Error("Lookup should not match a longer name")
	}
	if _, ok := key.Lookup("empty"); ok {
		t.Error("entries with empty corrections should be dropped")
	}
}

func TestReadList(t *testing.T) {
	in := "# comment\nvan, von,der\n\n de ,,\n"
	got, err := ReadList(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadList() error = %v", err)
	}
	want := []string{"van", "von", "der", "de"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("ReadList() = %q, want %q", got, want)
	}
}

func TestRenameRows(t *testing.T) {
	rows := [][]string{
		{"notes", "Orig", "Corrected"},
		{"x", "Nat Neurosci", "Nature Neuroscience"},
		{"y", "short"},
		{"z", "blank", ""},
	}
	m, err := renameRows(rows)
	if err != nil {
		t.Fatalf("renameRows() error = %v", err)
	}
	if len(m) != 1 || m["nat neurosci"] != "Nature Neuroscience" {
		t.Errorf("renameRows() = %v", m)
	}

	_, err = renameRows([][]string{{"name", "value"}})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("renameRows() without headers error = %v, want ErrMissingColumn", err)
	}
}

func TestReadRenameKey_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal_key.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := map[string]string{
		"A1": "orig", "B1": "corrected",
		"A2": "psychol rev", "B2": "Psychological Review",
	}
	for cell, v := range cells {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("SetCellValue(%s) error = %v", cell, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	f.Close()

	m, err := ReadRenameKey(path)
	if err != nil {
		t.Fatalf("ReadRenameKey() error = %v", err)
	}
	if m["psychol rev"] != "Psychological Review" {
		t.Errorf("ReadRenameKey() = %v", m)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, PrefixesFile), "zu\n")
	writeFile(t, filepath.Join(dir, "publisher_key.csv"), "orig,corrected\nacme,ACME Books\n")

	tables, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	if !tables.IsPrefix("zu") || tables.IsPrefix("van") {
		t.Error("prefixes.txt should replace the default prefix list")
	}
	if got, _ := tables.PublisherKey().Lookup("Acme"); got != "ACME Books" {
		t.Errorf("PublisherKey().Lookup(Acme) = %q", got)
	}
	if !tables.IsSuffix("jr") {
		t.Error("tables without an override file should keep their defaults")
	}
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("LoadDir() expected error for a missing directory")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}
