// Package check runs the validation pipeline over a bibliography: duplicate
// detection, citation keys, page ranges, field formatting, and pruning of
// non-essential fields.
package check

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/contextlab/bibcheck/internal/author"
	"github.com/contextlab/bibcheck/internal/bibtex"
	"github.com/contextlab/bibcheck/internal/citekey"
	"github.com/contextlab/bibcheck/internal/dedupe"
	"github.com/contextlab/bibcheck/internal/format"
	"github.com/contextlab/bibcheck/internal/lookup"
	"github.com/contextlab/bibcheck/internal/pages"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageDuplicates Stage = "duplicates"
	StageKeys       Stage = "keys"
	StagePages      Stage = "pages"
	StageFields     Stage = "fields"
	StagePolish     Stage = "polish"
	StageWrite      Stage = "write"
)

// FatalError stops the pipeline. Keys lists the offending entries, or the
// groups of entries for duplicates.
type FatalError struct {
	Stage  Stage
	Reason string
	Keys   []string
	Err    error
}

func (e *FatalError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Reason)
	if len(e.Keys) > 0 {
		msg += ": " + strings.Join(e.Keys, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Checker validates entries against one set of lookup tables. It holds no
// mutable state, so CheckEntry may be called from several goroutines.
type Checker struct {
	tables *lookup.Tables
	names  *author.Normalizer
	keys   *citekey.Deriver
	format *format.Formatter
	logger *slog.Logger
}

// New returns a Checker. A nil logger means slog.Default().
func New(tables *lookup.Tables, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	names := author.NewNormalizer(tables)
	return &Checker{
		tables: tables,
		names:  names,
		keys:   citekey.NewDeriver(names),
		format: format.NewFormatter(tables),
		logger: logger.With("component", "check"),
	}
}

// Tables returns the lookup tables the checker was built with.
func (c *Checker) Tables() *lookup.Tables {
	return c.tables
}

// Result is the outcome of Run.
type Result struct {
	Report  Report
	Entries []*bibtex.Entry
	// Removed lists, per key, the fields pruned from Entries.
	Removed map[string][]string
}

// Run checks every entry in col. Without autofix, the returned entries are
// pruned but not corrected, and any pruned field is fatal. With autofix the
// corrections in the report are applied to the returned entries. col itself
// is never modified.
func (c *Checker) Run(col *bibtex.Collection, autofix bool) (*Result, error) {
	c.logger.Info("checking bibliography", "entries", col.Len(), "autofix", autofix)

	if err := c.checkDuplicates(col); err != nil {
		return nil, err
	}

	var report Report
	ids, err := c.checkKeys(col)
	if err != nil {
		return nil, err
	}
	report.add(ids...)
	c.logger.Debug("stage done", "stage", StageKeys, "corrections", len(ids))

	pageFixes, err := c.checkPages(col)
	if err != nil {
		return nil, err
	}
	report.add(pageFixes...)
	c.logger.Debug("stage done", "stage", StagePages, "corrections", len(pageFixes))

	fieldFixes, err := c.checkFields(col)
	if err != nil {
		return nil, err
	}
	report.add(fieldFixes...)
	c.logger.Debug("stage done", "stage", StageFields, "corrections", len(fieldFixes))

	entries, removed, err := c.Polish(col.Entries, report, autofix)
	if err != nil {
		return nil, err
	}
	if !autofix && len(removed) > 0 {
		keys := make([]string, 0, len(removed))
		for id := range removed {
			keys = append(keys, id)
		}
		sort.Strings(keys)
		return nil, &FatalError{Stage: StagePolish, Reason: "entries have non-essential fields", Keys: keys}
	}

	c.logger.Info("check complete", "corrections", report.Len(), "pruned", len(removed))
	return &Result{Report: report, Entries: entries, Removed: removed}, nil
}

func (c *Checker) checkDuplicates(col *bibtex.Collection) error {
	ids := col.IDs()
	r := dedupe.Find(ids, col.Values(bibtex.FieldAuthor), col.Values(bibtex.FieldTitle), c.names)
	c.logger.Debug("stage done", "stage", StageDuplicates, "keys", len(r.DuplicateKeys), "groups", len(r.Groups))

	if len(r.DuplicateKeys) > 0 {
		return &FatalError{Stage: StageDuplicates, Reason: "duplicate keys found", Keys: r.DuplicateKeys}
	}
	if len(r.Groups) > 0 {
		return &FatalError{Stage: StageDuplicates, Reason: "redundant entries found", Keys: r.Describe(ids)}
	}
	return nil
}

// checkKeys derives the base key of every entry and checks collision
// suffixes. Forced entries take part in the grouping when their key can be
// derived, but are never corrected.
func (c *Checker) checkKeys(col *bibtex.Collection) ([]Correction, error) {
	var (
		cands   []citekey.Candidate
		entries []*bibtex.Entry
		bad     []string
		errs    []error
	)
	for _, e := range col.Entries {
		base, err := c.keys.Derive(e.Author, e.Year)
		if err != nil {
			if e.Forced() {
				continue
			}
			bad = append(bad, e.ID)
			errs = append(errs, fmt.Errorf("%s: %w", e.ID, err))
			continue
		}
		cands = append(cands, citekey.Candidate{ID: e.ID, Base: base})
		entries = append(entries, e)
	}
	if len(bad) > 0 {
		return nil, &FatalError{Stage: StageKeys, Reason: "cannot derive keys", Keys: bad, Err: errors.Join(errs...)}
	}

	targets, err := citekey.CheckSuffixes(cands)
	if err != nil {
		return nil, &FatalError{Stage: StageKeys, Reason: "conflicting key corrections", Err: err}
	}

	var fixes []Correction
	for i, e := range entries {
		if !e.Forced() && targets[i] != e.ID {
			fixes = append(fixes, Correction{ID: e.ID, Field: bibtex.FieldID, Current: e.ID, Target: targets[i]})
		}
	}
	return fixes, nil
}

func (c *Checker) checkPages(col *bibtex.Collection) ([]Correction, error) {
	var (
		fixes     []Correction
		unfixable []string
	)
	for _, e := range col.Entries {
		fix, res, ok := c.checkPagesField(e)
		if !ok {
			unfixable = append(unfixable, fmt.Sprintf("%s: %s (%s)", e.ID, res.Original, res.Reason))
			continue
		}
		if fix != nil {
			fixes = append(fixes, *fix)
		}
	}
	if len(unfixable) > 0 {
		return nil, &FatalError{Stage: StagePages, Reason: "ambiguous or incorrect page numbers", Keys: unfixable}
	}
	return fixes, nil
}

// checkPagesField validates the pages of e. ok is false when the range
// cannot be corrected safely.
func (c *Checker) checkPagesField(e *bibtex.Entry) (*Correction, pages.Result, bool) {
	if e.Forced() || e.Pages == "" {
		return nil, pages.Result{}, true
	}
	res := pages.ValidateRange(e.Pages)
	if res.Outcome == pages.Uncorrectable {
		return nil, res, false
	}
	if !res.NeedsChange() {
		return nil, res, true
	}
	return &Correction{ID: e.ID, Field: bibtex.FieldPages, Current: e.Pages, Target: res.Suggestion}, res, true
}

type fieldCheck struct {
	field  string
	target func(string) (string, error)
}

func (c *Checker) fieldChecks() []fieldCheck {
	return []fieldCheck{
		{bibtex.FieldJournal, c.format.Journal},
		{bibtex.FieldBooktitle, c.format.Journal},
		{bibtex.FieldTitle, c.format.Title},
		{bibtex.FieldPublisher, c.format.Publisher},
		{bibtex.FieldAuthor, c.names.Reformat},
		{bibtex.FieldEditor, c.names.Reformat},
		{bibtex.FieldAddress, c.format.Address},
	}
}

func (c *Checker) checkFields(col *bibtex.Collection) ([]Correction, error) {
	var (
		fixes []Correction
		bad   []string
		errs  []error
	)
	for _, fc := range c.fieldChecks() {
		n := len(fixes)
		for _, e := range col.Entries {
			fix, err := c.checkField(e, fc)
			if err != nil {
				bad = append(bad, e.ID)
				errs = append(errs, err)
				continue
			}
			if fix != nil {
				fixes = append(fixes, *fix)
			}
		}
		c.logger.Debug("field checked", "field", fc.field, "corrections", len(fixes)-n)
	}
	if len(bad) > 0 {
		return nil, &FatalError{Stage: StageFields, Reason: "cannot format fields", Keys: bad, Err: errors.Join(errs...)}
	}
	return fixes, nil
}

// checkField formats one field of e. Missing fields and forced entries yield
// no correction.
func (c *Checker) checkField(e *bibtex.Entry, fc fieldCheck) (*Correction, error) {
	current := e.Get(fc.field)
	if e.Forced() || current == "" {
		return nil, nil
	}
	target, err := fc.target(current)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", e.ID, fc.field, err)
	}
	if target == current {
		return nil, nil
	}
	return &Correction{ID: e.ID, Field: fc.field, Current: current, Target: target}, nil
}

// CheckEntry runs the checks that need no other entry: pages, venue, title,
// publisher, author, editor and address. An uncorrectable page range or a
// field that cannot be formatted is returned as an error alongside the
// corrections found for the other fields.
func (c *Checker) CheckEntry(e *bibtex.Entry) ([]Correction, error) {
	var (
		fixes []Correction
		errs  []error
	)
	fix, res, ok := c.checkPagesField(e)
	if !ok {
		errs = append(errs, &FatalError{Stage: StagePages, Reason: res.Reason, Keys: []string{e.ID}})
	} else if fix != nil {
		fixes = append(fixes, *fix)
	}

	for _, fc := range c.fieldChecks() {
		fix, err := c.checkField(e, fc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if fix != nil {
			fixes = append(fixes, *fix)
		}
	}
	return fixes, errors.Join(errs...)
}

// DeriveKey returns the base citation key for an author list and year.
func (c *Checker) DeriveKey(authors, year string) (string, error) {
	return c.keys.Derive(authors, year)
}
