// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ukentomology/internal/fetch"
	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/internal/normalize"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch both museum sources, merge them, and store the dataset",
	Long: `Fetch queries the NHM data portal for BMNH(E) Lepidoptera records and the
South West Collections Explorer for natural-science objects, keeps the RAMM
butterflies and moths, maps both onto the canonical schema and merges them
(LMNH rows first).

The merged table is saved as a new run in the local store. Use --csv or
--json to also write it to a file, and --save-payloads to keep the raw API
responses for later use with normalize.

The RAMM API token is read from .secrets/ramm-api-token, .env, or the
RAMM_API_TOKEN environment variable.`,
	RunE: runFetch,
}

func init() {
	addNormalizeFlags(fetchCmd)
	addOutputFlags(fetchCmd)
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Int("max-records", 0, "maximum LMNH records to page through (0 = first page only)")
	fetchCmd.Flags().Int("ramm-pages", 0, "maximum RAMM pages to fetch (default 1)")
	fetchCmd.Flags().String("save-payloads", "", "directory to write raw lmnh.json and ramm.json payloads")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Fetch.Timeout}
	backends := []fetch.Backend{
		&fetch.NHMBackend{Client: client, Config: cfg.Fetch.NHM, HTTP: cfg.Fetch.HTTPConfig},
		&fetch.RAMMBackend{Client: client, Config: cfg.Fetch.RAMM, HTTP: cfg.Fetch.HTTPConfig},
	}
	results := fetch.FetchAll(ctx, backends)

	if dir, _ := cmd.Flags().GetString("save-payloads"); dir != "" {
		for _, r := range results {
			if r.Err != nil || r.Payload == nil {
				continue
			}
			path, err := fetch.SavePayload(dir, r.Institution, r.Payload)
			if err != nil {
				return err
			}
			log.Info().Str("source", string(r.Institution)).Str("path", path).Msg("saved payload")
		}
	}

	inputs := fetch.Inputs(results,
		normalize.LMNH(),
		normalize.RAMM(cfg.Normalize.CaseInsensitiveNames),
	)
	res, err := normalize.Run(ctx, inputs, normalize.Options{
		Policy:   cfg.Normalize.Policy,
		Parallel: cfg.Normalize.Parallel,
	})
	if err != nil {
		return err
	}

	return finishRun(cmd, cfg, res, os.Stdout)
}
