// Package main provides the bibcheck CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/contextlab/bibcheck/internal/bibtex"
	"github.com/contextlab/bibcheck/internal/check"
	"github.com/contextlab/bibcheck/internal/config"
	"github.com/contextlab/bibcheck/internal/lookup"
)

// Version is set at build time via ldflags
var Version = "dev"

// DefaultBibFile is checked when no file argument is given.
const DefaultBibFile = "cdl.bib"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	configPath  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibcheck",
	Short: "Check and normalize a BibTeX bibliography",
	Long: `bibcheck validates a shared BibTeX bibliography: citation keys,
page ranges, author lists, titles and venue names, duplicate entries and
non-essential fields. It can fix what it finds, compare two versions of a
bibliography, and check entries against CrossRef.

All commands output JSON by default. Use --human for text.

Environment Variables:
  CROSSREF_MAILTO  Contact address sent with CrossRef requests`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if present (for CROSSREF_MAILTO)
		_ = godotenv.Load()
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each check to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/bibcheck/config.yml)")
	rootCmd.Version = Version
}

// setupLogging sends logs to stderr so stdout stays parseable.
func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadTables loads the lookup tables named by cfg, exits on error.
func mustLoadTables(cfg *config.Config) *lookup.Tables {
	tables, err := cfg.Tables()
	if err != nil {
		exitWithError(ExitConfigError, "loading lookup tables: %v", err)
	}
	return tables
}

// mustNewChecker builds a checker from the user's configuration.
func mustNewChecker() (*config.Config, *check.Checker) {
	cfg := mustLoadConfig()
	return cfg, check.New(mustLoadTables(cfg), slog.Default())
}

// mustLoadBibliography reads a bibliography from a file, a URL or "github",
// exits on error.
func mustLoadBibliography(ctx context.Context, src string) *bibtex.Collection {
	col, err := bibtex.Load(ctx, src)
	if err != nil {
		exitWithError(ExitDataError, "loading bibliography: %v", err)
	}
	return col
}

// mustParseFile reads a bibliography from disk, exits on error.
func mustParseFile(path string) *bibtex.Collection {
	col, err := bibtex.ParseFile(path)
	if err != nil {
		exitWithError(ExitDataError, "reading bibliography: %v", err)
	}
	return col
}

// bibFileArg returns the bibliography named on the command line, or the
// default file.
func bibFileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return DefaultBibFile
}
