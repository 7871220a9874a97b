package crossref

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/contextlab/bibcheck/internal/bibtex"
	"github.com/contextlab/bibcheck/internal/check"
)

// Thresholds used when comparing an entry with its CrossRef record.
const (
	MatchThreshold   = 0.7  // minimum title similarity for a search hit
	YearPenalty      = 0.7  // search score multiplier when years differ
	TitleThreshold   = 0.85 // titles below this are reported
	AuthorThreshold  = 0.7  // author match ratios at or below this are reported
	SurnameThreshold = 0.85 // surnames above this count as the same person
	JournalThreshold = 0.7  // journals below this are reported

	// DefaultWorkers bounds concurrent lookups in VerifyAll.
	DefaultWorkers = 5
)

// Source is the part of Client the Verifier needs.
type Source interface {
	GetWork(ctx context.Context, doi string) (*Work, error)
	SearchWorks(ctx context.Context, query string, rows int) ([]Work, error)
}

// Result is the verification outcome for one entry.
type Result struct {
	ID            string            `json:"id"`
	Verified      bool              `json:"verified"`
	Discrepancies []string          `json:"discrepancies,omitempty"`
	Corrections   map[string]string `json:"corrections,omitempty"`
	Err           error             `json:"-"`
}

// Verifier compares entries with CrossRef records. It is safe for
// concurrent use.
type Verifier struct {
	src     Source
	workers int
	logger  *slog.Logger
}

// NewVerifier returns a Verifier. workers <= 0 means DefaultWorkers and a nil
// logger means slog.Default().
func NewVerifier(src Source, workers int, logger *slog.Logger) *Verifier {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{src: src, workers: workers, logger: logger.With("component", "crossref")}
}

// VerifyEntry looks e up by DOI, falling back to a title and first-author
// search, and lists every disagreement. Year and volume mismatches and a
// missing DOI come with corrections. Forced entries are verified without a
// lookup.
func (v *Verifier) VerifyEntry(ctx context.Context, e *bibtex.Entry) Result {
	res := Result{ID: e.ID}
	if e.Forced() {
		v.logger.Debug("force flag set, skipping", "id", e.ID)
		res.Verified = true
		return res
	}

	work, err := v.lookup(ctx, e)
	if err != nil {
		res.Err = err
		return res
	}
	if work == nil {
		v.logger.Warn("no verification data found", "id", e.ID)
		res.Discrepancies = []string{"No verification data found in CrossRef"}
		return res
	}

	res.Discrepancies, res.Corrections = compare(e, work)
	res.Verified = len(res.Discrepancies) == 0
	if res.Verified {
		v.logger.Debug("verified", "id", e.ID)
	}
	return res
}

// lookup finds the CrossRef record for e. A nil work with a nil error means
// nothing matched. Lookup failures other than cancellation fall through to
// the next strategy.
func (v *Verifier) lookup(ctx context.Context, e *bibtex.Entry) (*Work, error) {
	if e.DOI != "" {
		work, err := v.src.GetWork(ctx, bibtex.NormalizeDOI(e.DOI))
		if err == nil {
			return work, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		v.logger.Warn("DOI lookup failed", "id", e.ID, "doi", e.DOI, "error", err)
	}

	if e.Title == "" {
		return nil, nil
	}
	query := e.Title
	if last := lastNames(e.Author); len(last) > 0 {
		query += " " + last[0]
	}
	works, err := v.src.SearchWorks(ctx, query, DefaultRows)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		v.logger.Warn("metadata lookup failed", "id", e.ID, "error", err)
		return nil, nil
	}
	return bestMatch(works, e.Title, e.Year), nil
}

// bestMatch returns the work whose title is most similar to title, or nil if
// none reaches MatchThreshold. Works from another year are penalized.
func bestMatch(works []Work, title, year string) *Work {
	var (
		best      *Work
		bestScore float64
	)
	for i := range works {
		score := Similarity(title, works[i].FirstTitle())
		if y := works[i].Year(); year != "" && y != 0 && strconv.Itoa(y) != year {
			score *= YearPenalty
		}
		if score > bestScore {
			best, bestScore = &works[i], score
		}
	}
	if bestScore < MatchThreshold {
		return nil
	}
	return best
}

func compare(e *bibtex.Entry, w *Work) ([]string, map[string]string) {
	var notes []string
	fixes := make(map[string]string)

	if sim := Similarity(e.Title, w.FirstTitle()); sim < TitleThreshold {
		notes = append(notes,
			fmt.Sprintf("Title mismatch (similarity: %.2f%%)", sim*100),
			"  BibTeX:   "+e.Title,
			"  CrossRef: "+w.FirstTitle())
	}

	if ok, sim := compareAuthors(e.Author, w.Author); !ok {
		notes = append(notes,
			fmt.Sprintf("Author mismatch (similarity: %.2f%%)", sim*100),
			"  BibTeX:   "+e.Author,
			"  CrossRef: "+w.Authors())
	}

	if y := w.Year(); y != 0 && e.Year != "" && strconv.Itoa(y) != e.Year {
		notes = append(notes, fmt.Sprintf("Year mismatch: %s vs %d", e.Year, y))
		fixes[bibtex.FieldYear] = strconv.Itoa(y)
	}

	if j := w.Journal(); e.Journal != "" && j != "" {
		if sim := Similarity(e.Journal, j); sim < JournalThreshold {
			notes = append(notes,
				fmt.Sprintf("Journal mismatch (similarity: %.2f%%)", sim*100),
				"  BibTeX:   "+e.Journal,
				"  CrossRef: "+j)
		}
	}

	if e.Volume != "" && w.Volume != "" && e.Volume != w.Volume {
		notes = append(notes, fmt.Sprintf("Volume mismatch: %s vs %s", e.Volume, w.Volume))
		fixes[bibtex.FieldVolume] = w.Volume
	}

	if e.Pages != "" && w.Page != "" && normalizePages(e.Pages) != normalizePages(w.Page) {
		notes = append(notes, fmt.Sprintf("Pages mismatch: %s vs %s", e.Pages, w.Page))
	}

	if e.DOI == "" && w.DOI != "" {
		fixes[bibtex.FieldDOI] = "https://doi.org/" + w.DOI
		notes = append(notes, "DOI missing, can add: "+w.DOI)
	}

	if len(fixes) == 0 {
		fixes = nil
	}
	return notes, fixes
}

func normalizePages(p string) string {
	return strings.NewReplacer("--", "-", "−", "-").Replace(p)
}

// lastNames returns the final word of each " and "-separated author.
func lastNames(authors string) []string {
	if authors == "" {
		return nil
	}
	var out []string
	for _, a := range strings.Split(authors, " and ") {
		if parts := strings.Fields(a); len(parts) > 0 {
			out = append(out, parts[len(parts)-1])
		}
	}
	return out
}

// compareAuthors matches local surnames against CrossRef family names. The
// score is the number of local surnames with a close match divided by the
// larger of the two list lengths.
func compareAuthors(local string, remote []Person) (bool, float64) {
	var mine, theirs []string
	for _, n := range lastNames(local) {
		mine = append(mine, strings.ToLower(n))
	}
	for _, p := range remote {
		if p.Family != "" {
			theirs = append(theirs, strings.ToLower(p.Family))
		}
	}
	if len(mine) == 0 || len(theirs) == 0 {
		return false, 0
	}

	matches := 0
	for _, m := range mine {
		for _, t := range theirs {
			if Similarity(m, t) > SurnameThreshold {
				matches++
				break
			}
		}
	}
	score := float64(matches) / float64(max(len(mine), len(theirs)))
	return score > AuthorThreshold, score
}

var (
	latexCommand = regexp.MustCompile(`\\[a-zA-Z]+`)
	nonWord      = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	spaces       = regexp.MustCompile(`\s+`)
)

// normalize reduces s to lower-case letters, digits and single spaces, with
// LaTeX commands and braces removed.
func normalize(s string) string {
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	s = latexCommand.ReplaceAllString(s, "")
	s = nonWord.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity returns the sequence-matching ratio of the normalized forms of
// a and b, between 0 and 1. Either string being empty gives 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(strings.Split(normalize(a), ""), strings.Split(normalize(b), ""))
	return m.Ratio()
}

// VerifyAll verifies entries with at most the configured number of lookups
// in flight. Results are in entry order. Per-entry lookup failures are
// reported in Result.Err; the returned error is only set when ctx ends.
func (v *Verifier) VerifyAll(ctx context.Context, entries []*bibtex.Entry) ([]Result, error) {
	results := make([]Result, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = v.VerifyEntry(ctx, e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verified := 0
	for _, r := range results {
		if r.Verified {
			verified++
		}
	}
	v.logger.Info("verification complete", "entries", len(entries), "verified", verified)
	return results, nil
}

// Corrections collects the corrections proposed in results as a report that
// check.Checker.Apply accepts. Current values come from col.
func Corrections(results []Result, col *bibtex.Collection) check.Report {
	byID := col.ByID()
	var r check.Report
	for _, res := range results {
		e, ok := byID[res.ID]
		if !ok {
			continue
		}
		for _, field := range []string{bibtex.FieldYear, bibtex.FieldVolume, bibtex.FieldDOI} {
			if target, ok := res.Corrections[field]; ok {
				r.Add(check.Correction{ID: res.ID, Field: field, Current: e.Get(field), Target: target})
			}
		}
	}
	return r
}
