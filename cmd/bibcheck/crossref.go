package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/contextlab/bibcheck/internal/config"
	"github.com/contextlab/bibcheck/internal/crossref"
	"github.com/contextlab/bibcheck/internal/storage"
)

var (
	crossrefWorkers int
	crossrefMax     int
	crossrefAutofix bool
	crossrefOutfile string
	crossrefNoCache bool
)

func init() {
	crossrefCmd.Flags().IntVar(&crossrefWorkers, "workers", 0, "Concurrent lookups (default from config)")
	crossrefCmd.Flags().IntVar(&crossrefMax, "max", 0, "Verify at most this many entries (0 = all)")
	crossrefCmd.Flags().BoolVar(&crossrefAutofix, "autofix", false, "Apply year, volume and DOI corrections")
	crossrefCmd.Flags().StringVarP(&crossrefOutfile, "outfile", "o", "", "Write the corrected bibliography to this file")
	crossrefCmd.Flags().BoolVar(&crossrefNoCache, "no-cache", false, "Do not read or write the response cache")
	crossrefCmd.MarkFlagsRequiredTogether("autofix", "outfile")
	rootCmd.AddCommand(crossrefCmd)
}

var crossrefCmd = &cobra.Command{
	Use:   "crossref [file]",
	Short: "Check entries against CrossRef metadata",
	Long: `Look every entry up on CrossRef, by DOI when present and by title and
first author otherwise, and report where the bibliography disagrees.
Entries with a force field are accepted without a lookup.

Responses are cached in SQLite (crossref.cache in the config, default
under the user cache directory).

Examples:
  bibcheck crossref --max 20 --human
  bibcheck crossref --workers 8 --autofix --outfile cdl.bib`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrossref,
}

// CrossrefResponse is the response for the crossref command.
type CrossrefResponse struct {
	File     string            `json:"file"`
	Checked  int               `json:"checked"`
	Verified int               `json:"verified"`
	Failed   int               `json:"failed"`
	Results  []crossrefResult  `json:"results"`
	Applied  *CorrectionsBrief `json:"applied,omitempty"`
}

type crossrefResult struct {
	crossref.Result
	Error string `json:"error,omitempty"`
}

// CorrectionsBrief summarizes corrections written by --autofix.
type CorrectionsBrief struct {
	Count   int    `json:"count"`
	Outfile string `json:"outfile"`
}

func runCrossref(cmd *cobra.Command, args []string) error {
	file := bibFileArg(args)
	cfg, checker := mustNewChecker()
	col := mustLoadBibliography(cmd.Context(), file)

	opts := []crossref.ClientOption{
		crossref.WithMailto(cfg.CrossRef.Mailto),
		crossref.WithRate(cfg.CrossRef.Rate),
		crossref.WithLogger(slog.Default()),
	}
	if !crossrefNoCache {
		cache, err := storage.OpenCache(cachePath(cfg), cfg.CrossRef.CacheTTL)
		if err != nil {
			exitWithError(ExitConfigError, "opening response cache: %v", err)
		}
		defer cache.Close()
		opts = append(opts, crossref.WithCache(cache))
	}

	workers := crossrefWorkers
	if workers <= 0 {
		workers = cfg.CrossRef.Workers
	}
	verifier := crossref.NewVerifier(crossref.NewClient(opts...), workers, slog.Default())

	entries := col.Entries
	if crossrefMax > 0 && crossrefMax < len(entries) {
		entries = entries[:crossrefMax]
	}

	results, err := verifier.VerifyAll(cmd.Context(), entries)
	if err != nil {
		exitWithError(ExitError, "verification interrupted: %v", err)
	}

	resp := CrossrefResponse{File: file, Checked: len(results), Results: make([]crossrefResult, len(results))}
	for i, r := range results {
		resp.Results[i] = crossrefResult{Result: r}
		switch {
		case r.Err != nil:
			resp.Results[i].Error = r.Err.Error()
			resp.Failed++
		case r.Verified:
			resp.Verified++
		}
	}

	if crossrefAutofix {
		report := crossref.Corrections(results, col)
		fixed, _, err := checker.Polish(col.Entries, report, true)
		if err != nil {
			exitWithCheckError(err)
		}
		if err := checker.Write(crossrefOutfile, fixed); err != nil {
			exitWithCheckError(err)
		}
		resp.Applied = &CorrectionsBrief{Count: report.Len(), Outfile: crossrefOutfile}
	}

	if humanOutput {
		printCrossrefHuman(resp)
	} else {
		outputJSON(resp)
	}

	if resp.Verified < resp.Checked && resp.Applied == nil {
		os.Exit(ExitCorrections)
	}
	return nil
}

// cachePath returns the configured cache, or crossref.db in the user cache
// directory.
func cachePath(cfg *config.Config) string {
	if cfg.CrossRef.Cache != "" {
		return cfg.CrossRef.Cache
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, config.ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("cannot create cache directory", "dir", dir, "error", err)
	}
	return filepath.Join(dir, "crossref.db")
}

func printCrossrefHuman(resp CrossrefResponse) {
	for _, r := range resp.Results {
		if r.Verified {
			continue
		}
		fmt.Printf("%s\n", r.ID)
		if r.Error != "" {
			fmt.Printf("  lookup failed: %s\n", r.Error)
		}
		for _, d := range r.Discrepancies {
			fmt.Printf("  %s\n", d)
		}
	}
	fmt.Printf("\n%d of %d entries verified", resp.Verified, resp.Checked)
	if resp.Failed > 0 {
		fmt.Printf(", %d lookups failed", resp.Failed)
	}
	fmt.Println()
	if resp.Applied != nil {
		fmt.Printf("%d corrections saved to %s\n", resp.Applied.Count, resp.Applied.Outfile)
	}
}
