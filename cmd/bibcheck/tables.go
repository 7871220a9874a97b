package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tablesCmd)
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show the loaded lookup tables",
	Long: `Show how many entries each lookup table holds and which fields are
kept. Tables come from tables_dir in the config when set, otherwise the
built-in defaults.`,
	Args: cobra.NoArgs,
	RunE: runTables,
}

// TablesResponse is the response for the tables command.
type TablesResponse struct {
	Source     string         `json:"source"`
	Sizes      map[string]int `json:"sizes"`
	KeepFields []string       `json:"keep_fields"`
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	tables := mustLoadTables(cfg)

	resp := TablesResponse{Source: "embedded", Sizes: tables.Sizes(), KeepFields: tables.KeepFields()}
	if cfg.TablesDir != "" {
		resp.Source = cfg.TablesDir
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	fmt.Printf("Tables: %s\n\n", resp.Source)
	names := make([]string, 0, len(resp.Sizes))
	for name := range resp.Sizes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-14s %d\n", name, resp.Sizes[name])
	}
	fmt.Printf("\nKept fields: %s\n", formatIDList(resp.KeepFields))
	return nil
}
