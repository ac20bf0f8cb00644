// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ukentomology/internal/secrets"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// setDefaults registers every config key so env overrides such as
// UKENTOMOLOGY_FETCH_NHM_MAX_RECORDS reach Unmarshal.
func setDefaults(v *viper.Viper, d types.PipelineConfig) {
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)

	v.SetDefault("fetch.nhm.base_url", d.Fetch.NHM.BaseURL)
	v.SetDefault("fetch.nhm.resource_id", d.Fetch.NHM.ResourceID)
	v.SetDefault("fetch.nhm.query", d.Fetch.NHM.Query)
	v.SetDefault("fetch.nhm.page_size", d.Fetch.NHM.PageSize)
	v.SetDefault("fetch.nhm.max_records", d.Fetch.NHM.MaxRecords)

	v.SetDefault("fetch.ramm.base_url", d.Fetch.RAMM.BaseURL)
	v.SetDefault("fetch.ramm.api_token", "")
	v.SetDefault("fetch.ramm.category", d.Fetch.RAMM.Category)
	v.SetDefault("fetch.ramm.per_page", d.Fetch.RAMM.PerPage)
	v.SetDefault("fetch.ramm.max_pages", d.Fetch.RAMM.MaxPages)

	v.SetDefault("normalize.policy", string(d.Normalize.Policy))
	v.SetDefault("normalize.parallel", d.Normalize.Parallel)
	v.SetDefault("normalize.case_insensitive_names", d.Normalize.CaseInsensitiveNames)

	v.SetDefault("store.data_dir", d.Store.DataDir)
}

// loadConfig builds the pipeline config from defaults, config file and
// environment, then applies the command's flags and secrets.
func loadConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyNormalizeFlags(cmd, &cfg.Normalize)
	applyFetchFlags(cmd, &cfg.Fetch)

	cfg.Fetch.RAMM.APIToken = secrets.Lookup(loadedSecrets, secrets.RAMMAPIToken, cfg.Fetch.RAMM.APIToken)

	if !cfg.Normalize.Policy.Valid() {
		return cfg, fmt.Errorf("invalid policy %q (want %q or %q)", cfg.Normalize.Policy, types.PolicyPartial, types.PolicyAbort)
	}
	return cfg, nil
}

// addNormalizeFlags registers the flags shared by fetch and normalize.
func addNormalizeFlags(cmd *cobra.Command) {
	cmd.Flags().String("policy", string(types.PolicyPartial), "on a source failure: partial (keep the other source) or abort")
	cmd.Flags().Bool("parallel", false, "run the two source pipelines concurrently")
	cmd.Flags().Bool("case-insensitive", false, "match RAMM butterfly/moth names ignoring case")
}

func applyNormalizeFlags(cmd *cobra.Command, cfg *types.NormalizeConfig) {
	flags := cmd.Flags()
	if flags.Changed("policy") {
		p, _ := flags.GetString("policy")
		cfg.Policy = types.FailurePolicy(p)
	}
	if flags.Changed("parallel") {
		cfg.Parallel, _ = flags.GetBool("parallel")
	}
	if flags.Changed("case-insensitive") {
		cfg.CaseInsensitiveNames, _ = flags.GetBool("case-insensitive")
	}
}

func applyFetchFlags(cmd *cobra.Command, cfg *types.FetchConfig) {
	flags := cmd.Flags()
	if f := flags.Lookup("timeout"); f != nil && f.Changed {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if f := flags.Lookup("max-records"); f != nil && f.Changed {
		cfg.NHM.MaxRecords, _ = flags.GetInt("max-records")
	}
	if f := flags.Lookup("ramm-pages"); f != nil && f.Changed {
		cfg.RAMM.MaxPages, _ = flags.GetInt("ramm-pages")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = types.DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = types.DefaultUserAgent
	}
}
