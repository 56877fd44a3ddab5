// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventloc/locator/resolver"
)

var serveOptions = struct {
	addr          string
	purgeSchedule string
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP resolution API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		r, closer, err := newResolver(ctx, config, reg)
		if err != nil {
			return err
		}
		defer closer.Close()

		if serveOptions.purgeSchedule != "" {
			c, err := schedulePurge(ctx, r.Cache(), serveOptions.purgeSchedule)
			if err != nil {
				return err
			}

			c.Start()
			defer c.Stop()
		}

		if config.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		return resolver.NewServer(r, reg, logger).Run(ctx, serveOptions.addr)
	},
}

// schedulePurge registers a cron job deleting expired cache entries.
func schedulePurge(ctx context.Context, cache *resolver.Cache, schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(schedule, func() {
		n, err := cache.Purge(ctx)
		if err != nil {
			logger.Warn("cache purge failed", zap.Error(err))

			return
		}

		logger.Info("cache purged", zap.Int("removed", n))
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.addr, "addr", "localhost:8080", "Listen address")
	serveCmd.Flags().StringVar(&serveOptions.purgeSchedule, "purge-schedule", "@hourly", "Cron schedule of the expired entries purge, empty to disable")
}
