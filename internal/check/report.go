package check

import (
	"sort"
	"strings"
)

// Correction replaces one field of one entry.
type Correction struct {
	ID      string `json:"id"`
	Field   string `json:"field"`
	Current string `json:"current"`
	Target  string `json:"target"`
}

// Report collects corrections in the order they were found. When the same
// field of the same entry is corrected twice, the later correction wins.
type Report struct {
	Corrections []Correction `json:"corrections"`
}

func (r *Report) add(cs ...Correction) {
	for _, c := range cs {
		replaced := false
		for i := range r.Corrections {
			if r.Corrections[i].ID == c.ID && r.Corrections[i].Field == c.Field {
				r.Corrections[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			r.Corrections = append(r.Corrections, c)
		}
	}
}

// Add appends corrections to the report.
func (r *Report) Add(cs ...Correction) {
	r.add(cs...)
}

// Len returns the number of corrections.
func (r Report) Len() int {
	return len(r.Corrections)
}

// Empty reports whether there is nothing to correct.
func (r Report) Empty() bool {
	return len(r.Corrections) == 0
}

// IDs returns the corrected keys, sorted.
func (r Report) IDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range r.Corrections {
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// ByID returns the corrections as key -> field -> target value.
func (r Report) ByID() map[string]map[string]string {
	m := make(map[string]map[string]string)
	for _, c := range r.Corrections {
		if m[c.ID] == nil {
			m[c.ID] = make(map[string]string)
		}
		m[c.ID][c.Field] = c.Target
	}
	return m
}

// String lists one correction per line.
func (r Report) String() string {
	var b strings.Builder
	for _, c := range r.Corrections {
		b.WriteString(c.ID + ": " + c.Field + " \"" + c.Current + "\" should be \"" + c.Target + "\"\n")
	}
	return b.String()
}
