// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ukentomology CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/internal/secrets"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the ukentomology CLI.
var rootCmd = &cobra.Command{
	Use:   "ukentomology",
	Short: "Merge UK museum butterfly and moth specimen records",
	Long: `ukentomology pulls Lepidoptera specimen records from the Natural History
Museum data portal (LMNH) and the South West Collections Explorer (RAMM),
maps both onto one canonical schema and merges them into a single dataset.

Use fetch to pull and merge live data, normalize to rerun the merge on saved
payloads, and load or stats to inspect a dataset.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.Setup(viper.GetString("log_level"), viper.GetString("log_format"))
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logging.WithLogger(ctx, &logger))

		s, err := secrets.Load(cmd.Context(), viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		if err := secrets.LoadEnvFile(viper.GetString("env_file"), s); err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./ukentomology.yaml or ~/.config/ukentomology/ukentomology.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", logging.FormatAuto, "log format (auto, console, json)")
	pf.String("data-dir", types.DefaultDataDir, "directory holding ukentomology.db and run manifests")
	pf.String("secrets-dir", ".secrets", "directory of secret files (filename = key)")
	pf.String("env-file", ".env", "optional dotenv file with RAMM_API_TOKEN")

	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("store.data_dir", pf.Lookup("data-dir"))
	_ = viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
	_ = viper.BindPFlag("env_file", pf.Lookup("env-file"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ukentomology")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ukentomology"))
		}
	}

	setDefaults(viper.GetViper(), types.DefaultPipelineConfig())

	viper.SetEnvPrefix("UKENTOMOLOGY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logging.Default().Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
