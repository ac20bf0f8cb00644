// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ukentomology/internal/report"
	"github.com/pdiddy/ukentomology/internal/store"
	"github.com/pdiddy/ukentomology/internal/tabular"
	"github.com/pdiddy/ukentomology/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats [dataset.csv]",
	Short: "Count specimens per institution and per family",
	Long: `Stats prints grouped specimen counts for a merged dataset: by default the
number of rows per institution and per family. Use --by to choose other
canonical columns. Without a file argument the latest stored run is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("encoding", string(tabular.EncodingLatin1), "CSV encoding (utf-8 or latin-1)")
	statsCmd.Flags().String("run", "", "stored run id (default: latest)")
	statsCmd.Flags().StringSlice("by", []string{types.ColInstitution, types.ColFamily}, "columns to group by")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	by, _ := cmd.Flags().GetStringSlice("by")
	for _, col := range by {
		if _, ok := (types.Specimen{}).Get(col); !ok {
			return fmt.Errorf("unknown column %q (want one of %s)", col, strings.Join(types.Columns(), ", "))
		}
	}

	if len(args) == 1 {
		tbl, _, err := loadTable(cmd, args)
		if err != nil {
			return err
		}
		for _, col := range by {
			counts, err := tableCounts(tbl, col)
			if err != nil {
				return err
			}
			report.RenderCounts(os.Stdout, "Specimens by "+col, counts)
		}
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		info, err := st.Latest(cmd.Context())
		if err != nil {
			return err
		}
		runID = info.ID
	}
	fmt.Fprintf(os.Stdout, "run %s\n", runID)
	for _, col := range by {
		counts, err := st.CountBy(cmd.Context(), runID, col)
		if err != nil {
			return err
		}
		if col == types.ColInstitution {
			counts = report.WithInstitutions(counts)
		}
		report.RenderCounts(os.Stdout, "Specimens by "+col, counts)
	}
	return nil
}

// tableCounts groups an in-memory table the same way the stored-run path
// does, listing every institution even when it has no rows.
func tableCounts(tbl types.Table, col string) ([]report.Count, error) {
	switch col {
	case types.ColInstitution:
		return report.CountByInstitution(tbl), nil
	case types.ColFamily:
		return report.CountByFamily(tbl), nil
	}
	return report.CountBy(tbl, col)
}
