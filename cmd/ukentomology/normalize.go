// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ukentomology/internal/fetch"
	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/internal/report"
	"github.com/pdiddy/ukentomology/internal/store"
	"github.com/pdiddy/ukentomology/internal/tabular"
	"github.com/pdiddy/ukentomology/pkg/types"
)

var errNoPayload = errors.New("no payload file given")

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Merge saved LMNH and RAMM payloads without network access",
	Long: `Normalize runs the merge pipeline on raw API responses saved by
fetch --save-payloads (or captured by hand). Give a payload directory holding
lmnh.json and ramm.json, or name each file with --lmnh and --ramm.

A missing or unreadable payload is a failed source: under the partial policy
the other source is still merged and the failure is reported.`,
	RunE: runNormalize,
}

func init() {
	addNormalizeFlags(normalizeCmd)
	addOutputFlags(normalizeCmd)
	normalizeCmd.Flags().String("payload-dir", "", "directory holding lmnh.json and ramm.json")
	normalizeCmd.Flags().String("lmnh", "", "LMNH payload file (overrides --payload-dir)")
	normalizeCmd.Flags().String("ramm", "", "RAMM payload file (overrides --payload-dir)")

	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("payload-dir")
	lmnhPath, _ := cmd.Flags().GetString("lmnh")
	rammPath, _ := cmd.Flags().GetString("ramm")
	if dir != "" {
		if lmnhPath == "" {
			lmnhPath = filepath.Join(dir, fetch.PayloadFile(types.InstitutionLMNH))
		}
		if rammPath == "" {
			rammPath = filepath.Join(dir, fetch.PayloadFile(types.InstitutionRAMM))
		}
	}
	if lmnhPath == "" && rammPath == "" {
		return fmt.Errorf("provide --payload-dir, or --lmnh and --ramm payload files")
	}

	inputs := []normalize.Input{
		payloadInput(normalize.LMNH(), lmnhPath),
		payloadInput(normalize.RAMM(cfg.Normalize.CaseInsensitiveNames), rammPath),
	}
	res, err := normalize.Run(cmd.Context(), inputs, normalize.Options{
		Policy:   cfg.Normalize.Policy,
		Parallel: cfg.Normalize.Parallel,
	})
	if err != nil {
		return err
	}
	return finishRun(cmd, cfg, res, os.Stdout)
}

func payloadInput(src normalize.Source, path string) normalize.Input {
	if path == "" {
		return normalize.Input{Source: src, Err: errNoPayload}
	}
	payload, err := fetch.LoadPayload(path)
	return normalize.Input{Source: src, Payload: payload, Err: err}
}

// addOutputFlags registers the dataset output flags shared by fetch and
// normalize.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("csv", "", "write the merged table to this CSV file")
	cmd.Flags().String("json", "", "write the merged table to this JSON file")
	cmd.Flags().String("encoding", string(tabular.EncodingUTF8), "CSV encoding (utf-8 or latin-1)")
	cmd.Flags().Bool("no-store", false, "do not save the run in the local store")
}

// finishRun prints the per-source report, writes requested files and saves
// the run.
func finishRun(cmd *cobra.Command, cfg types.PipelineConfig, res normalize.Result, w io.Writer) error {
	report.RenderRun(w, res)
	if failed := res.FailedSources(); len(failed) > 0 {
		logging.FromContext(cmd.Context()).Warn().
			Interface("sources", failed).
			Msg("merged dataset is missing failed sources")
	}

	csvPath, _ := cmd.Flags().GetString("csv")
	if csvPath != "" {
		encName, _ := cmd.Flags().GetString("encoding")
		enc, err := tabular.ParseEncoding(encName)
		if err != nil {
			return err
		}
		if err := writeFile(csvPath, func(f io.Writer) error { return tabular.WriteCSV(f, res.Table, enc) }); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s (%d rows, %s)\n", csvPath, res.Table.Len(), enc)
	}

	jsonPath, _ := cmd.Flags().GetString("json")
	if jsonPath != "" {
		if err := writeFile(jsonPath, func(f io.Writer) error { return tabular.WriteJSON(f, res.Table) }); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s (%d rows)\n", jsonPath, res.Table.Len())
	}

	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		return nil
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	info, err := st.SaveRun(cmd.Context(), res, cfg.Normalize.Policy)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "saved run %s (%d rows), manifest %s\n", info.ID, info.Rows, st.ManifestPath(info.ID))
	return nil
}

// writeFile creates path, including parent directories, and closes it after
// write returns.
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
