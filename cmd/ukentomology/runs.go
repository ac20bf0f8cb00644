// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No stored runs.")
			return nil
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Run", "Created", "Policy", "Rows", "Failed sources"})
		for _, r := range runs {
			failed, err := failedSources(cmd, st, r.ID)
			if err != nil {
				return err
			}
			tw.AppendRow(table.Row{r.ID, r.CreatedAt.Local().Format(time.DateTime), string(r.Policy), r.Rows, failed})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

// failedSources lists, comma-separated, the sources recorded as failed in a
// run's manifest.
func failedSources(cmd *cobra.Command, st *store.Store, id string) (string, error) {
	m, err := st.Manifest(cmd.Context(), id)
	if err != nil {
		return "", err
	}
	res := normalize.Result{Reports: m.Reports}
	names := make([]string, 0, len(m.Reports))
	for _, inst := range res.FailedSources() {
		names = append(names, string(inst))
	}
	return strings.Join(names, ", "), nil
}
