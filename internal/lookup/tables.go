// Package lookup holds the static tables that drive normalization: name
// particles and suffixes, capitalization overrides, the field allow-list and
// the journal, publisher and address rename dictionaries.
//
// Tables are built once and never mutated afterwards, so a single *Tables can
// be shared by any number of goroutines.
package lookup

import (
	"sort"
	"strings"

	"github.com/contextlab/bibcheck/internal/textutil"
)

// Source is the raw content of every table, as read from disk or embedded
// defaults.
type Source struct {
	Prefixes     []string
	Suffixes     []string
	Uncaps       []string
	ForceCaps    []string
	AddressCodes []string
	KeepFields   []string

	JournalKey   map[string]string
	PublisherKey map[string]string
	AddressKey   map[string]string
}

// Tables is the read-only, indexed form of a Source.
type Tables struct {
	prefixes map[string]bool
	suffixes map[string]bool
	uncaps   map[string]bool

	forceCaps    CapsIndex
	addressCodes CapsIndex

	keepFields []string
	keepSet    map[string]bool

	journalKey   RenameKey
	publisherKey RenameKey
	addressKey   RenameKey
}

// New indexes src. The slices and maps in src are copied.
func New(src Source) *Tables {
	t := &Tables{
		prefixes:     lowerSet(src.Prefixes),
		suffixes:     lowerSet(src.Suffixes),
		uncaps:       lowerSet(src.Uncaps),
		forceCaps:    NewCapsIndex(src.ForceCaps),
		addressCodes: NewCapsIndex(src.AddressCodes),
		keepSet:      make(map[string]bool, len(src.KeepFields)),
		journalKey:   NewRenameKey(src.JournalKey),
		publisherKey: NewRenameKey(src.PublisherKey),
		addressKey:   NewRenameKey(src.AddressKey),
	}
	for _, f := range src.KeepFields {
		f = strings.TrimSpace(f)
		if f == "" || t.keepSet[f] {
			continue
		}
		t.keepSet[f] = true
		t.keepFields = append(t.keepFields, f)
	}
	sort.Strings(t.keepFields)
	return t
}

// IsPrefix reports whether tok is a surname particle such as "van" or "de".
func (t *Tables) IsPrefix(tok string) bool {
	return t.prefixes[strings.ToLower(tok)]
}

// IsSuffix reports whether tok is a name suffix such as "Jr" or "III".
// A single trailing period is ignored, so "Jr." matches but the initials
// "J.R." do not.
func (t *Tables) IsSuffix(tok string) bool {
	tok = strings.TrimSuffix(strings.TrimSpace(tok), ".")
	return t.suffixes[strings.ToLower(tok)]
}

// IsUncap reports whether w stays lower case inside a venue name.
func (t *Tables) IsUncap(w string) bool {
	return t.uncaps[strings.ToLower(w)]
}

// ForceCaps returns the forced-capitalization index.
func (t *Tables) ForceCaps() CapsIndex { return t.forceCaps }

// AddressCodes returns the capitalization index used for address fields.
func (t *Tables) AddressCodes() CapsIndex { return t.addressCodes }

// JournalKey returns the journal rename dictionary.
func (t *Tables) JournalKey() RenameKey { return t.journalKey }

// PublisherKey returns the publisher rename dictionary.
func (t *Tables) PublisherKey() RenameKey { return t.publisherKey }

// AddressKey returns the address rename dictionary.
func (t *Tables) AddressKey() RenameKey { return t.addressKey }

// KeepFields returns the sorted field allow-list. The returned slice is a copy.
func (t *Tables) KeepFields() []string {
	return append([]string(nil), t.keepFields...)
}

// WithKeepFields returns a copy of t whose allow-list is fields. The other
// tables are shared, which is safe since they are never written.
func (t *Tables) WithKeepFields(fields []string) *Tables {
	c := *t
	c.keepFields = nil
	c.keepSet = make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || c.keepSet[f] {
			continue
		}
		c.keepSet[f] = true
		c.keepFields = append(c.keepFields, f)
	}
	sort.Strings(c.keepFields)
	return &c
}

// Keeps reports whether field survives pruning.
func (t *Tables) Keeps(field string) bool {
	return t.keepSet[field]
}

// Sizes reports the number of entries in each table, keyed by file stem.
func (t *Tables) Sizes() map[string]int {
	return map[string]int{
		"prefixes":      len(t.prefixes),
		"suffixes":      len(t.suffixes),
		"uncaps":        len(t.uncaps),
		"caps":          t.forceCaps.Len(),
		"addresses":     t.addressCodes.Len(),
		"keep_fields":   len(t.keepFields),
		"journal_key":   len(t.journalKey),
		"publisher_key": len(t.publisherKey),
		"address_key":   len(t.addressKey),
	}
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

// CapsIndex maps the case- and punctuation-folded form of a term to its
// required spelling. When two terms fold to the same key the later one wins.
type CapsIndex struct {
	forms map[string]string
}

// NewCapsIndex indexes terms in order.
func NewCapsIndex(terms []string) CapsIndex {
	idx := CapsIndex{forms: make(map[string]string, len(terms))}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		idx.forms[foldCaps(term)] = term
	}
	return idx
}

// Lookup returns the required spelling for word, if any.
func (c CapsIndex) Lookup(word string) (string, bool) {
	form, ok := c.forms[foldCaps(word)]
	return form, ok
}

// Contains reports whether word has a required spelling.
func (c CapsIndex) Contains(word string) bool {
	_, ok := c.Lookup(word)
	return ok
}

// Len returns the number of indexed terms.
func (c CapsIndex) Len() int {
	return len(c.forms)
}

func foldCaps(s string) string {
	return textutil.StripNonLetters(strings.ToLower(s))
}

// RenameKey maps a lower-cased original name to its corrected display form.
type RenameKey map[string]string

// NewRenameKey copies m, lower-casing its keys and dropping empty values.
func NewRenameKey(m map[string]string) RenameKey {
	key := make(RenameKey, len(m))
	for orig, corrected := range m {
		orig = strings.ToLower(strings.TrimSpace(orig))
		corrected = strings.TrimSpace(corrected)
		if orig == "" || corrected == "" {
			continue
		}
		key[orig] = corrected
	}
	return key
}

// Lookup returns the corrected form of name. Only a full-string,
// case-insensitive match counts.
func (k RenameKey) Lookup(name string) (string, bool) {
	corrected, ok := k[strings.ToLower(name)]
	return corrected, ok
}
