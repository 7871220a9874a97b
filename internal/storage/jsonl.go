// Package storage persists tooling state: a SQLite cache of CrossRef
// responses and a JSONL log of reported corrections.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/contextlab/bibcheck/internal/check"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// CorrectionRecord is one line of the correction log.
type CorrectionRecord struct {
	RunID   string    `json:"run_id"`
	Time    time.Time `json:"time"`
	Source  string    `json:"source"` // e.g. "verify" or "crossref"
	File    string    `json:"file,omitempty"`
	ID      string    `json:"id"`
	Field   string    `json:"field"`
	Current string    `json:"current"`
	Target  string    `json:"target"`
}

// AppendCorrections appends one record per correction in report to the log
// at path and returns the run ID shared by the new records.
func AppendCorrections(path, source, file string, report check.Report) (string, error) {
	runID := uuid.NewString()
	if report.Empty() {
		return runID, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("opening correction log for append: %w", err)
	}
	defer f.Close()

	now := time.Now().UTC()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range report.Corrections {
		rec := CorrectionRecord{
			RunID:   runID,
			Time:    now,
			Source:  source,
			File:    file,
			ID:      c.ID,
			Field:   c.Field,
			Current: c.Current,
			Target:  c.Target,
		}
		if err := enc.Encode(rec); err != nil {
			return "", fmt.Errorf("encoding correction %s[%s]: %w", c.ID, c.Field, err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("writing correction log: %w", err)
	}
	return runID, nil
}

// ReadCorrections reads every record from the log at path. A missing file
// holds no records.
func ReadCorrections(path string) ([]CorrectionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening correction log: %w", err)
	}
	defer f.Close()

	var recs []CorrectionRecord
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec CorrectionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		recs = append(recs, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading correction log: %w", err)
	}

	return recs, nil
}

// Runs groups records by run ID, in order of first appearance.
func Runs(recs []CorrectionRecord) [][]CorrectionRecord {
	var (
		order []string
		byRun = make(map[string][]CorrectionRecord)
	)
	for _, r := range recs {
		if _, ok := byRun[r.RunID]; !ok {
			order = append(order, r.RunID)
		}
		byRun[r.RunID] = append(byRun[r.RunID], r)
	}
	out := make([][]CorrectionRecord, len(order))
	for i, id := range order {
		out[i] = byRun[id]
	}
	return out
}
