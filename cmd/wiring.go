// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eventloc/locator/llm"
	"github.com/eventloc/locator/resolver"
	"github.com/eventloc/locator/utils/httputils"
)

// openStore opens the configured cache backend. The returned closer
// releases its connections.
func openStore(ctx context.Context, cfg *Config) (resolver.Store, io.Closer, error) {
	switch cfg.Cache {
	case "memory":
		return resolver.NewMemoryStore(), io.NopCloser(nil), nil

	case "redis":
		client, err := resolver.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}

		return resolver.NewRedisStore(client, cfg.Options.CacheTTL), client, nil

	case "duckdb":
		db, err := sql.Open("duckdb", cfg.DuckDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}

		store := resolver.NewDuckDBStore(db)
		if err := store.CreateSchema(); err != nil {
			store.DB().Close()

			return nil, nil, fmt.Errorf("creating cache schema: %w", err)
		}

		return store, store.DB(), nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache)
	}
}

// openCache wraps the configured store with the TTL.
func openCache(ctx context.Context, cfg *Config) (*resolver.Cache, io.Closer, error) {
	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return resolver.NewCache(store, cfg.Options.CacheTTL, logger), closer, nil
}

func googleMapsAPIKey(ctx context.Context, cfg *Config) (string, error) {
	if cfg.GoogleMapsAPIKey != "" {
		return cfg.GoogleMapsAPIKey, nil
	}

	logger.Info("GOOGLE_MAPS_API_KEY is not set, looking it up through application default credentials")

	key, err := resolver.APIKeyFromADC(ctx, cfg.GoogleProject, resolver.DefaultAPIKeyDisplayName, logger)
	if err != nil {
		return "", fmt.Errorf("GOOGLE_MAPS_API_KEY is not set and ADC lookup failed: %w", err)
	}

	return key, nil
}

// requestHeaders returns the headers sent to external services: the
// user agent plus extra, which may override it.
func requestHeaders(extra map[string]string) map[string]string {
	headers := map[string]string{"User-Agent": "locator/" + Version}
	for k, v := range extra {
		headers[k] = v
	}

	return headers
}

// newResolver assembles a resolver from cfg. reg may be nil.
func newResolver(ctx context.Context, cfg *Config, reg prometheus.Registerer) (*resolver.Resolver, io.Closer, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, nil, errors.New("OPENAI_API_KEY is not set")
	}

	var trace io.Writer
	if cfg.TraceHTTP {
		trace = os.Stderr
	}

	completer, err := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.Options.LLMTimeout,
		Trace:   trace,
		Headers: requestHeaders(cfg.LLMHeaders),
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	apiKey, err := googleMapsAPIKey(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	geocoder := resolver.NewGoogleMapsGeocoder(apiKey, httputils.NewClient(cfg.Options.GeocodeTimeout, trace, requestHeaders(nil)))

	timezones, err := resolver.NewTZFLookup()
	if err != nil {
		return nil, nil, err
	}

	similarity, _ := resolver.SimilarityByName(cfg.Similarity)

	var metrics *resolver.Metrics
	if reg != nil {
		if metrics, err = resolver.NewMetrics(reg); err != nil {
			return nil, nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	cache, closer, err := openCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	r, err := resolver.New(resolver.Config{
		Completer:  completer,
		Geocoder:   geocoder,
		Cache:      cache,
		Timezones:  timezones,
		Similarity: similarity,
		Metrics:    metrics,
		Options:    cfg.Options,
		Logger:     logger,
	})
	if err != nil {
		closer.Close()

		return nil, nil, err
	}

	logger.Debug("resolver ready",
		zap.String("cache", cfg.Cache),
		zap.String("model", cfg.Options.Model),
		zap.String("similarity", cfg.Similarity))

	return r, closer, nil
}
