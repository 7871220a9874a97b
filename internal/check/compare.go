package check

import (
	"sort"
	"strings"

	"github.com/contextlab/bibcheck/internal/bibtex"
)

// FieldDiff lists how the fields of one entry changed.
type FieldDiff struct {
	Added    []string `json:"added,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// Comparison describes the differences between two bibliographies. All key
// lists are sorted.
type Comparison struct {
	Removed  []string             `json:"removed,omitempty"`
	Added    []string             `json:"added,omitempty"`
	Modified []string             `json:"modified,omitempty"`
	Fields   map[string]FieldDiff `json:"fields,omitempty"`
}

// Identical reports whether the two bibliographies hold the same entries.
func (c Comparison) Identical() bool {
	return len(c.Removed) == 0 && len(c.Added) == 0 && len(c.Modified) == 0
}

// Summary describes the changes in a few sentences, suitable for a commit
// message. It is empty when the bibliographies are identical.
func (c Comparison) Summary() string {
	var parts []string
	if len(c.Removed) > 0 {
		parts = append(parts, "removed the following entries: "+strings.Join(c.Removed, ", "))
	}
	if len(c.Added) > 0 {
		parts = append(parts, "added the following entries: "+strings.Join(c.Added, ", "))
	}
	if len(c.Modified) > 0 {
		parts = append(parts, "modified the following entries: "+strings.Join(c.Modified, ", "))
	}
	return strings.Join(parts, "\n\n")
}

// Compare diffs b against a. Entries are matched by key; the entry type
// counts as a field named "type".
func Compare(a, b *bibtex.Collection) Comparison {
	old, cur := a.ByID(), b.ByID()
	cmp := Comparison{Fields: make(map[string]FieldDiff)}

	for id := range old {
		if _, ok := cur[id]; !ok {
			cmp.Removed = append(cmp.Removed, id)
		}
	}
	for id, e := range cur {
		prev, ok := old[id]
		if !ok {
			cmp.Added = append(cmp.Added, id)
			continue
		}
		if d, changed := diffEntry(prev, e); changed {
			cmp.Modified = append(cmp.Modified, id)
			cmp.Fields[id] = d
		}
	}

	sort.Strings(cmp.Removed)
	sort.Strings(cmp.Added)
	sort.Strings(cmp.Modified)
	return cmp
}

func diffEntry(a, b *bibtex.Entry) (FieldDiff, bool) {
	var d FieldDiff
	if a.Type != b.Type {
		d.Modified = append(d.Modified, "type")
	}
	for _, name := range a.Fields() {
		switch {
		case !b.Has(name):
			d.Deleted = append(d.Deleted, name)
		case a.Get(name) != b.Get(name):
			d.Modified = append(d.Modified, name)
		}
	}
	for _, name := range b.Fields() {
		if !a.Has(name) {
			d.Added = append(d.Added, name)
		}
	}
	changed := len(d.Added) > 0 || len(d.Deleted) > 0 || len(d.Modified) > 0
	return d, changed
}
