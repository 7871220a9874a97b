package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextlab/bibcheck/internal/pages"
)

func init() {
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(pagesCmd)
}

var keyCmd = &cobra.Command{
	Use:   "key <authors> <year>",
	Short: "Derive the citation key for an author list and year",
	Long: `Derive the base citation key (no collision suffix) from a BibTeX
author list and a year.

Examples:
  bibcheck key "Smith, John and Doe, Jane" 2020`,
	Args: cobra.ExactArgs(2),
	RunE: runKey,
}

// KeyResponse is the response for the key command.
type KeyResponse struct {
	Authors string `json:"authors"`
	Year    string `json:"year"`
	Key     string `json:"key"`
}

func runKey(cmd *cobra.Command, args []string) error {
	_, checker := mustNewChecker()
	key, err := checker.DeriveKey(args[0], args[1])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		outputHuman("%s\n", key)
	} else {
		outputJSON(KeyResponse{Authors: args[0], Year: args[1], Key: key})
	}
	return nil
}

var pagesCmd = &cobra.Command{
	Use:   "pages <range>...",
	Short: "Validate page ranges",
	Long: `Validate one or more pages field values and show the suggested form.

Exits with code 3 if any range cannot be corrected.

Examples:
  bibcheck pages 125-36 "5–7" S12--S15`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPages,
}

// PagesResult is one validated range.
type PagesResult struct {
	Original   string `json:"original"`
	Outcome    string `json:"outcome"`
	Suggestion string `json:"suggestion,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func runPages(cmd *cobra.Command, args []string) error {
	results := make([]PagesResult, len(args))
	failed := false
	for i, tok := range args {
		r := pages.ValidateRange(tok)
		results[i] = PagesResult{Original: r.Original, Outcome: r.Outcome.String(), Reason: r.Reason}
		if r.NeedsChange() {
			results[i].Suggestion = r.Suggestion
		}
		if r.Outcome == pages.Uncorrectable {
			failed = true
		}
	}

	if humanOutput {
		for _, r := range results {
			fmt.Printf("%-20s %s", r.Original, r.Outcome)
			if r.Suggestion != "" {
				fmt.Printf(" -> %s", r.Suggestion)
			}
			if r.Reason != "" {
				fmt.Printf(" (%s)", r.Reason)
			}
			fmt.Println()
		}
	} else {
		outputJSON(results)
	}

	if failed {
		os.Exit(ExitDataError)
	}
	return nil
}
