package check

import (
	"fmt"

	"github.com/contextlab/bibcheck/internal/bibtex"
)

// Polish returns copies of entries with every field outside the keep list
// removed, along with the names of the removed fields per key. Forced
// entries are copied whole. With autofix the report is applied to the copies
// as well.
func (c *Checker) Polish(entries []*bibtex.Entry, report Report, autofix bool) ([]*bibtex.Entry, map[string][]string, error) {
	out := make([]*bibtex.Entry, len(entries))
	removed := make(map[string][]string)

	for i, e := range entries {
		p := e.Clone()
		out[i] = p
		if e.Forced() {
			c.logger.Debug("force flag found, skipping pruning", "id", e.ID)
			continue
		}
		for _, name := range e.Fields() {
			if !c.tables.Keeps(name) {
				p.Delete(name)
				removed[e.ID] = append(removed[e.ID], name)
				c.logger.Debug("extraneous field", "id", e.ID, "field", name)
			}
		}
	}
	c.logger.Debug("stage done", "stage", StagePolish, "pruned", len(removed))

	if autofix {
		if err := c.Apply(out, report); err != nil {
			return nil, nil, err
		}
	}
	return out, removed, nil
}

// Apply writes the corrections in report into entries. Corrections to forced
// entries and to fields outside the keep list are skipped, except for key
// corrections. A correction for a key that is not among entries is fatal and
// leaves entries untouched.
func (c *Checker) Apply(entries []*bibtex.Entry, report Report) error {
	byID := make(map[string]*bibtex.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	for _, id := range report.IDs() {
		if _, ok := byID[id]; !ok {
			return &FatalError{Stage: StagePolish, Reason: "key not found", Keys: []string{id}}
		}
	}

	applied := 0
	for _, fix := range report.Corrections {
		e := byID[fix.ID]
		if e.Forced() {
			c.logger.Debug("force flag found, skipping correction", "id", fix.ID, "field", fix.Field)
			continue
		}
		if fix.Field != bibtex.FieldID && !c.tables.Keeps(fix.Field) {
			continue
		}
		e.Set(fix.Field, fix.Target)
		applied++
	}
	c.logger.Info("corrections applied", "count", applied)
	return nil
}

// Write writes entries to path with the keep-list fields in sorted order.
func (c *Checker) Write(path string, entries []*bibtex.Entry) error {
	if err := bibtex.WriteFile(path, entries, c.tables.KeepFields()); err != nil {
		return &FatalError{Stage: StageWrite, Reason: fmt.Sprintf("cannot write %s", path), Err: err}
	}
	c.logger.Info("bibliography written", "path", path, "entries", len(entries))
	return nil
}
