package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/contextlab/bibcheck/internal/check"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitWithCheckError reports a pipeline failure and exits. Fatal check
// failures carry their stage and offending keys.
func exitWithCheckError(err error) {
	resp, code := checkErrorResponse(err)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", resp.Error)
		for _, k := range resp.Keys {
			fmt.Fprintf(os.Stderr, "  %s\n", k)
		}
	} else {
		outputJSON(resp)
	}
	os.Exit(code)
}

func checkErrorResponse(err error) (ErrorResponse, int) {
	var fatal *check.FatalError
	if !errors.As(err, &fatal) {
		return ErrorResponse{Error: err.Error()}, ExitError
	}
	resp := ErrorResponse{
		Error: fatal.Reason,
		Stage: string(fatal.Stage),
		Keys:  fatal.Keys,
	}
	if fatal.Err != nil {
		resp.Error += ": " + fatal.Err.Error()
	}
	if fatal.Stage == check.StageWrite {
		return resp, ExitError
	}
	return resp, ExitDataError
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string   `json:"error"`
	Stage string   `json:"stage,omitempty"`
	Keys  []string `json:"keys,omitempty"`
}

// CorrectionsResponse is the response for commands that propose corrections.
type CorrectionsResponse struct {
	Status      string              `json:"status"`
	File        string              `json:"file"`
	Entries     int                 `json:"entries"`
	Corrections []check.Correction  `json:"corrections"`
	Removed     map[string][]string `json:"removed,omitempty"`
	Outfile     string              `json:"outfile,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
}

// printCorrectionsHuman lists corrections grouped by key.
func printCorrectionsHuman(corrections []check.Correction) {
	sorted := append([]check.Correction(nil), corrections...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	last := ""
	for _, c := range sorted {
		if c.ID != last {
			fmt.Printf("%s\n", c.ID)
			last = c.ID
		}
		fmt.Printf("  %-10s %q -> %q\n", c.Field, c.Current, c.Target)
	}
}

// formatIDList formats a list of IDs as a comma-separated string.
func formatIDList(ids []string) string {
	return strings.Join(ids, ", ")
}
