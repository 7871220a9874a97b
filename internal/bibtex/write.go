package bibtex

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format renders e with the fields named in order, each on its own
// tab-indented line as "Name = {value}". Fields missing from e are skipped.
// A forced entry also gets its remaining fields, sorted, so that the flag and
// everything it protects survive a rewrite.
func Format(e *Entry, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,", e.Type, e.ID)

	written := make(map[string]bool, len(order))
	wrote := false
	emit := func(name string) {
		if written[name] || name == FieldID || !e.Has(name) {
			return
		}
		written[name] = true
		fmt.Fprintf(&b, "\n\t%s = {%s},", capitalize(name), e.Get(name))
		wrote = true
	}

	for _, name := range order {
		emit(name)
	}
	if e.Forced() {
		for _, name := range e.Fields() {
			emit(name)
		}
	}

	s := b.String()
	if wrote {
		s = strings.TrimSuffix(s, ",")
	}
	return s + "}\n"
}

// capitalize upper-cases the first letter of a field name and lower-cases
// the rest.
func capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}

// Write writes entries to w, separated by blank lines.
func Write(w io.Writer, entries []*Entry, order []string) error {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = Format(e, order)
	}
	_, err := io.WriteString(w, strings.Join(parts, "\n")+"\n")
	return err
}

// WriteFile writes entries to path, replacing any existing file.
func WriteFile(path string, entries []*Entry, order []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, entries, order); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
