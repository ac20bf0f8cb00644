// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ukentomology/internal/report"
	"github.com/pdiddy/ukentomology/internal/store"
	"github.com/pdiddy/ukentomology/internal/tabular"
	"github.com/pdiddy/ukentomology/pkg/types"
)

var loadCmd = &cobra.Command{
	Use:   "load [dataset.csv]",
	Short: "Load a merged dataset and print its shape",
	Long: `Load reads a merged dataset CSV (Latin-1 by default, matching the
published dataset file) and prints its row and column counts. Without a file
argument it loads the latest run from the local store, or the run named by
--run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().String("encoding", string(tabular.EncodingLatin1), "CSV encoding (utf-8 or latin-1)")
	loadCmd.Flags().String("run", "", "stored run id (default: latest)")
	loadCmd.Flags().Int("head", 0, "also print the first N rows")

	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	tbl, label, err := loadTable(cmd, args)
	if err != nil {
		return err
	}

	rows, cols := tabular.Shape(tbl)
	fmt.Fprintf(os.Stdout, "%s: (%d, %d)\n", label, rows, cols)

	if head, _ := cmd.Flags().GetInt("head"); head > 0 {
		report.RenderRows(os.Stdout, tbl, head)
	}
	return nil
}

// loadTable reads the dataset named by args[0], or a stored run when no
// file is given. The label names where the table came from.
func loadTable(cmd *cobra.Command, args []string) (types.Table, string, error) {
	if len(args) == 1 {
		encName, _ := cmd.Flags().GetString("encoding")
		enc, err := tabular.ParseEncoding(encName)
		if err != nil {
			return types.Table{}, "", err
		}
		tbl, err := readCSVFile(args[0], enc)
		return tbl, args[0], err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return types.Table{}, "", err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return types.Table{}, "", err
	}
	defer st.Close()

	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		info, tbl, err := st.LatestTable(cmd.Context())
		return tbl, "run " + info.ID, err
	}
	tbl, err := st.Table(cmd.Context(), runID)
	return tbl, "run " + runID, err
}

func readCSVFile(path string, enc tabular.Encoding) (types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Table{}, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	tbl, err := tabular.ReadCSV(f, enc)
	if err != nil {
		return types.Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return tbl, nil
}
