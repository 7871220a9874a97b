package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contextlab/bibcheck/internal/bibtex"
	"github.com/contextlab/bibcheck/internal/check"
	"github.com/contextlab/bibcheck/internal/git"
)

var (
	commitReference string
	commitOutfile   string
)

func init() {
	commitCmd.Flags().StringVar(&commitReference, "reference", "", `Bibliography to compare against: "github", a file, a URL or a git ref (default from config)`)
	commitCmd.Flags().StringVarP(&commitOutfile, "outfile", "o", "", "Also write the commit message to this file")
	rootCmd.AddCommand(commitCmd)
}

var commitCmd = &cobra.Command{
	Use:   "commit [file]",
	Short: "Check a bibliography and commit it with a change summary",
	Long: `Check a bibliography (default cdl.bib) without fixing anything. If it
passes, compare it to a reference and commit every tracked change with the
comparison summary as the message.

Examples:
  bibcheck commit
  bibcheck commit --reference HEAD
  bibcheck commit refs.bib --reference old.bib --outfile change.log`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommit,
}

// CommitResponse is the response for the commit command.
type CommitResponse struct {
	Status  string `json:"status"`
	SHA     string `json:"sha,omitempty"`
	Message string `json:"message"`
	Outfile string `json:"outfile,omitempty"`
}

func runCommit(cmd *cobra.Command, args []string) error {
	file := bibFileArg(args)
	cfg, checker := mustNewChecker()
	col := mustParseFile(file)

	res, err := checker.Run(col, false)
	if err != nil {
		exitWithCheckError(err)
	}
	if !res.Report.Empty() {
		if humanOutput {
			printCorrectionsHuman(res.Report.Corrections)
		}
		exitWithError(ExitCorrections, "%d corrections found; run verify to view and apply them", res.Report.Len())
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		exitWithError(ExitError, "resolving %s: %v", file, err)
	}
	root, err := git.FindRepoRoot(filepath.Dir(abs))
	if err != nil {
		exitWithError(ExitError, "%s is not in a git repository", file)
	}

	ref := commitReference
	if ref == "" {
		ref = cfg.Reference
	}
	old, err := loadReference(cmd.Context(), root, ref, abs)
	if err != nil {
		exitWithError(ExitDataError, "loading reference %s: %v", ref, err)
	}

	message := commitMessage(check.Compare(old, col), file)
	if commitOutfile != "" {
		if err := writeSummary(commitOutfile, message); err != nil {
			exitWithError(ExitError, "writing commit message: %v", err)
		}
	}

	sha, err := git.CommitAll(root, message)
	if err != nil {
		if errors.Is(err, git.ErrNothingToCommit) {
			exitWithError(ExitError, "nothing to commit in %s", root)
		}
		exitWithError(ExitError, "committing: %v", err)
	}

	resp := CommitResponse{Status: "committed", SHA: sha, Message: message, Outfile: commitOutfile}
	if humanOutput {
		fmt.Printf("checks passed; committed %s\n\n%s\n", sha[:min(len(sha), 7)], message)
	} else {
		outputJSON(resp)
	}
	return nil
}

// loadReference loads the bibliography to compare against. "github", URLs
// and existing files are loaded directly; anything else is a git ref at
// which path is read.
func loadReference(ctx context.Context, repoRoot, ref, path string) (*bibtex.Collection, error) {
	if ref == bibtex.DefaultSource || strings.Contains(ref, "://") {
		return bibtex.Load(ctx, ref)
	}
	if _, err := os.Stat(ref); err == nil {
		return bibtex.Load(ctx, ref)
	}

	data, err := git.FileAtRef(repoRoot, ref, path)
	if err != nil {
		return nil, err
	}
	return bibtex.ParseString(string(data))
}

func commitMessage(cmp check.Comparison, file string) string {
	if cmp.Identical() {
		return "reformat " + filepath.Base(file)
	}
	return cmp.Summary()
}
