package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextlab/bibcheck/internal/storage"
)

var (
	verifyAutofix bool
	verifyOutfile string
	verifyReport  string
)

func init() {
	verifyCmd.Flags().BoolVar(&verifyAutofix, "autofix", false, "Apply the corrections found")
	verifyCmd.Flags().StringVarP(&verifyOutfile, "outfile", "o", "", "Write the checked bibliography to this file")
	verifyCmd.Flags().StringVar(&verifyReport, "report", "", "Append the corrections to this JSONL log")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Check a bibliography and report or fix problems",
	Long: `Check every entry of a bibliography (default cdl.bib). The argument may
also be a URL, or "github" for the latest shared bibliography.

Duplicate keys, redundant entries, unfixable page ranges and missing authors
are fatal. Everything else is reported as a correction. With --autofix the
corrections are applied and, with --outfile, written out.

Exit codes:
  0  no corrections needed, or corrections written
  3  fatal problem found
  4  corrections found but not written

Examples:
  bibcheck verify
  bibcheck verify refs.bib --human
  bibcheck verify github
  bibcheck verify --autofix --outfile cdl.bib --report corrections.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	file := bibFileArg(args)
	_, checker := mustNewChecker()
	col := mustLoadBibliography(cmd.Context(), file)

	res, err := checker.Run(col, verifyAutofix)
	if err != nil {
		exitWithCheckError(err)
	}

	if verifyOutfile != "" {
		if err := checker.Write(verifyOutfile, res.Entries); err != nil {
			exitWithCheckError(err)
		}
	}

	var runID string
	if verifyReport != "" {
		runID, err = storage.AppendCorrections(verifyReport, "verify", file, res.Report)
		if err != nil {
			exitWithError(ExitError, "writing correction log: %v", err)
		}
		slog.Debug("correction log updated", "path", verifyReport, "run_id", runID)
	}

	written := verifyAutofix && verifyOutfile != ""
	resp := CorrectionsResponse{
		Status:      verifyStatus(res.Report.Empty(), written),
		File:        file,
		Entries:     col.Len(),
		Corrections: res.Report.Corrections,
		Removed:     res.Removed,
		Outfile:     verifyOutfile,
		RunID:       runID,
	}

	if humanOutput {
		printVerifyHuman(resp)
	} else {
		outputJSON(resp)
	}

	if !res.Report.Empty() && !written {
		os.Exit(ExitCorrections)
	}
	return nil
}

func verifyStatus(clean, written bool) string {
	switch {
	case clean:
		return "ok"
	case written:
		return "corrected"
	default:
		return "corrections_found"
	}
}

func printVerifyHuman(resp CorrectionsResponse) {
	if resp.Outfile != "" {
		fmt.Printf("saved updated bibliography to %s\n", resp.Outfile)
	}
	if len(resp.Corrections) == 0 {
		fmt.Println("looks good!")
		return
	}

	printCorrectionsHuman(resp.Corrections)
	fmt.Println()
	switch resp.Status {
	case "corrected":
		fmt.Printf("%d corrections applied and saved to %s\n", len(resp.Corrections), resp.Outfile)
	case "corrections_found":
		if verifyAutofix {
			fmt.Printf("%d corrections found; specify --outfile to save them\n", len(resp.Corrections))
		} else {
			fmt.Printf("%d corrections found; run with --autofix --outfile to apply them\n", len(resp.Corrections))
		}
	}
}
