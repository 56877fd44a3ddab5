// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventloc/locator/logging"
)

var (
	config  = defaultConfig()
	envFile string
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "locator",
	Short: "resolve free-text event location clues",
	Long: `
locator turns free-text clues about where an event takes place (messages,
flyers, phone numbers) into an address, coordinates, a confidence score and
a timezone.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}

		if err := config.loadEnv(cmd.Flags()); err != nil {
			return err
		}

		l, err := logging.New(config.LogLevel, config.LogJSON)
		if err != nil {
			return err
		}

		logger = l

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "Dotenv file loaded when present")
	flags.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level (debug, info, warn, error) [LOCATOR_LOG_LEVEL]")
	flags.BoolVar(&config.LogJSON, "log-json", config.LogJSON, "Log as JSON [LOCATOR_LOG_JSON]")
	flags.StringVar(&config.Cache, "cache", config.Cache, "Cache backend: memory, redis or duckdb [LOCATOR_CACHE]")
	flags.StringVar(&config.RedisAddr, "redis-addr", config.RedisAddr, "Redis address [REDIS_ADDR]")
	flags.IntVar(&config.RedisDB, "redis-db", config.RedisDB, "Redis database [REDIS_DB]")
	flags.StringVar(&config.DuckDBPath, "duckdb-path", config.DuckDBPath, "DuckDB cache file [LOCATOR_DUCKDB_PATH]")
	flags.DurationVar(&config.Options.CacheTTL, "cache-ttl", config.Options.CacheTTL, "Cache TTL [LOCATOR_CACHE_TTL]")
	flags.StringVar(&config.Options.Model, "model", config.Options.Model, "Chat completion model [LOCATOR_MODEL]")
	flags.DurationVar(&config.Options.LLMTimeout, "llm-timeout", config.Options.LLMTimeout, "Per call completion timeout [LOCATOR_LLM_TIMEOUT]")
	flags.DurationVar(&config.Options.GeocodeTimeout, "geocode-timeout", config.Options.GeocodeTimeout, "Per call geocoding timeout [LOCATOR_GEOCODE_TIMEOUT]")
	flags.IntVar(&config.Options.Retries, "retries", config.Options.Retries, "Retries for transient failures [LOCATOR_RETRIES]")
	flags.StringVar(&config.Similarity, "similarity", config.Similarity, "Verification similarity: jaccard or cosine [LOCATOR_SIMILARITY]")
	flags.StringToStringVar(&config.LLMHeaders, "llm-header", config.LLMHeaders, "Extra completion request header as Name=value, repeatable [LOCATOR_LLM_HEADERS]")
	flags.BoolVar(&config.TraceHTTP, "trace-http", config.TraceHTTP, "Display HTTP requests-responses")
}
