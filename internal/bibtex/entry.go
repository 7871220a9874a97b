// Package bibtex reads and writes BibTeX bibliographies.
package bibtex

import (
	"sort"
	"strings"
)

// Field names with dedicated struct fields. FieldID addresses the citation
// key through Get and Set.
const (
	FieldID        = "ID"
	FieldAuthor    = "author"
	FieldEditor    = "editor"
	FieldTitle     = "title"
	FieldYear      = "year"
	FieldMonth     = "month"
	FieldJournal   = "journal"
	FieldBooktitle = "booktitle"
	FieldPages     = "pages"
	FieldPublisher = "publisher"
	FieldAddress   = "address"
	FieldVolume    = "volume"
	FieldNumber    = "number"
	FieldDOI       = "doi"
	FieldURL       = "url"
	FieldForce     = "force"
)

// Entry is a single BibTeX record. Recognized fields have their own struct
// fields, where the empty string means absent; everything else lives in
// Extra.
type Entry struct {
	Type string // lower case, e.g. "article"
	ID   string

	Author    string
	Editor    string
	Title     string
	Year      string
	Month     string
	Journal   string
	Booktitle string
	Pages     string
	Publisher string
	Address   string
	Volume    string
	Number    string
	DOI       string
	URL       string

	Extra map[string]string
}

// slot returns the struct field backing name, or nil for fields kept in Extra.
func (e *Entry) slot(name string) *string {
	switch name {
	case FieldID:
		return &e.ID
	case FieldAuthor:
		return &e.Author
	case FieldEditor:
		return &e.Editor
	case FieldTitle:
		return &e.Title
	case FieldYear:
		return &e.Year
	case FieldMonth:
		return &e.Month
	case FieldJournal:
		return &e.Journal
	case FieldBooktitle:
		return &e.Booktitle
	case FieldPages:
		return &e.Pages
	case FieldPublisher:
		return &e.Publisher
	case FieldAddress:
		return &e.Address
	case FieldVolume:
		return &e.Volume
	case FieldNumber:
		return &e.Number
	case FieldDOI:
		return &e.DOI
	case FieldURL:
		return &e.URL
	}
	return nil
}

// Get returns the value of a field, or "" when it is absent.
func (e *Entry) Get(name string) string {
	if p := e.slot(name); p != nil {
		return *p
	}
	return e.Extra[name]
}

// Has reports whether a field is present.
func (e *Entry) Has(name string) bool {
	if p := e.slot(name); p != nil {
		return *p != ""
	}
	_, ok := e.Extra[name]
	return ok
}

// Set assigns a field.
func (e *Entry) Set(name, value string) {
	if p := e.slot(name); p != nil {
		*p = value
		return
	}
	if e.Extra == nil {
		e.Extra = make(map[string]string)
	}
	e.Extra[name] = value
}

// Delete removes a field. The citation key cannot be deleted.
func (e *Entry) Delete(name string) {
	if name == FieldID {
		return
	}
	if p := e.slot(name); p != nil {
		*p = ""
		return
	}
	delete(e.Extra, name)
}

// Fields returns the names of all present fields, sorted. The citation key
// and entry type are not fields.
func (e *Entry) Fields() []string {
	var names []string
	for _, name := range knownFields {
		if *e.slot(name) != "" {
			names = append(names, name)
		}
	}
	for name := range e.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var knownFields = []string{
	FieldAuthor, FieldEditor, FieldTitle, FieldYear, FieldMonth, FieldJournal,
	FieldBooktitle, FieldPages, FieldPublisher, FieldAddress, FieldVolume,
	FieldNumber, FieldDOI, FieldURL,
}

// Forced reports whether the entry carries a force flag, which exempts it
// from every correction. Any value other than an explicit false, 0, no or off
// counts.
func (e *Entry) Forced() bool {
	v, ok := e.Extra[FieldForce]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Extra != nil {
		c.Extra = make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// Equal reports whether two entries have the same type, key and fields.
func (e *Entry) Equal(o *Entry) bool {
	if e.Type != o.Type || e.ID != o.ID {
		return false
	}
	a, b := e.Fields(), o.Fields()
	if len(a) != len(b) {
		return false
	}
	for i, name := range a {
		if b[i] != name || e.Get(name) != o.Get(name) {
			return false
		}
	}
	return true
}

// Collection is an ordered list of entries. Repeated citation keys are kept
// so that they can be reported.
type Collection struct {
	Entries []*Entry
}

// Add appends e.
func (c *Collection) Add(e *Entry) {
	c.Entries = append(c.Entries, e)
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	return len(c.Entries)
}

// IDs returns every citation key in order.
func (c *Collection) IDs() []string {
	return c.Values(FieldID)
}

// Values returns the named field of every entry in order, with "" for
// entries that lack it.
func (c *Collection) Values(field string) []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Get(field)
	}
	return out
}

// Lookup returns the last entry with the given key.
func (c *Collection) Lookup(id string) (*Entry, bool) {
	for i := len(c.Entries) - 1; i >= 0; i-- {
		if c.Entries[i].ID == id {
			return c.Entries[i], true
		}
	}
	return nil, false
}

// ByID indexes the collection by key. When a key repeats, the last entry wins.
func (c *Collection) ByID() map[string]*Entry {
	m := make(map[string]*Entry, len(c.Entries))
	for _, e := range c.Entries {
		m[e.ID] = e
	}
	return m
}

// Clone returns a deep copy of c.
func (c *Collection) Clone() *Collection {
	out := &Collection{Entries: make([]*Entry, len(c.Entries))}
	for i, e := range c.Entries {
		out.Entries[i] = e.Clone()
	}
	return out
}

// NormalizeDOI strips resolver prefixes and lower-cases a DOI for comparison.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/", "DOI:", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(strings.TrimSpace(doi))
}
