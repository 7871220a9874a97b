package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextlab/bibcheck/internal/bibtex"
	"github.com/contextlab/bibcheck/internal/check"
)

var compareOutfile string

func init() {
	compareCmd.Flags().StringVarP(&compareOutfile, "outfile", "o", "", "Write the change summary to this file")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <old> <new>",
	Short: "Summarize the differences between two bibliographies",
	Long: `Compare two bibliographies entry by entry. Either argument may be a
file, a URL, or "github" for the latest shared bibliography.

Examples:
  bibcheck compare github cdl.bib
  bibcheck compare old.bib new.bib --human --outfile changes.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

// CompareResponse is the response for the compare command.
type CompareResponse struct {
	check.Comparison
	Identical bool   `json:"identical"`
	Summary   string `json:"summary"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	old, err := bibtex.Load(ctx, args[0])
	if err != nil {
		exitWithError(ExitDataError, "loading %s: %v", args[0], err)
	}
	cur, err := bibtex.Load(ctx, args[1])
	if err != nil {
		exitWithError(ExitDataError, "loading %s: %v", args[1], err)
	}

	cmp := check.Compare(old, cur)
	resp := CompareResponse{Comparison: cmp, Identical: cmp.Identical(), Summary: cmp.Summary()}

	if compareOutfile != "" {
		if err := writeSummary(compareOutfile, resp.Summary); err != nil {
			exitWithError(ExitError, "writing summary: %v", err)
		}
	}

	if humanOutput {
		printCompareHuman(resp)
	} else {
		outputJSON(resp)
	}
	return nil
}

func printCompareHuman(resp CompareResponse) {
	if resp.Identical {
		fmt.Println("bibliographies are identical")
		return
	}
	fmt.Println(resp.Summary)
	for _, id := range resp.Modified {
		d := resp.Fields[id]
		fmt.Printf("\n%s\n", id)
		if len(d.Added) > 0 {
			fmt.Printf("  added:    %s\n", formatIDList(d.Added))
		}
		if len(d.Deleted) > 0 {
			fmt.Printf("  deleted:  %s\n", formatIDList(d.Deleted))
		}
		if len(d.Modified) > 0 {
			fmt.Printf("  modified: %s\n", formatIDList(d.Modified))
		}
	}
}

func writeSummary(path, summary string) error {
	if summary == "" {
		summary = "no changes"
	}
	return os.WriteFile(path, []byte(summary+"\n"), 0644)
}
