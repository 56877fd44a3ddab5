// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventloc/locator/resolver/utils"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the resolution cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete entries older than the cache TTL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cache, closer, err := openCache(ctx, config)
		if err != nil {
			return err
		}
		defer closer.Close()

		n, err := cache.Purge(ctx)
		if err != nil {
			return fmt.Errorf("purging cache: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s expired entries\n", utils.FormatInt(int64(n)))

		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of cached entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cache, closer, err := openCache(ctx, config)
		if err != nil {
			return err
		}
		defer closer.Close()

		n, err := cache.Len(ctx)
		if err != nil {
			return fmt.Errorf("counting cache entries: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "backend: %s\nentries: %s\nttl:     %v\n",
			config.Cache, utils.FormatInt(int64(n)), cache.TTL())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
