// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ukentomology/internal/fetch"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the NHM data portal API answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b := &fetch.NHMBackend{
			Client: &http.Client{Timeout: cfg.Fetch.Timeout},
			Config: cfg.Fetch.NHM,
			HTTP:   cfg.Fetch.HTTPConfig,
		}
		if err := b.Ping(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("NHM data portal reachable at %s\n", cfg.Fetch.NHM.BaseURL)
		return nil
	},
}

func init() {
	pingCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	rootCmd.AddCommand(pingCmd)
}
