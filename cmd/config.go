// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/eventloc/locator/resolver"
)

// Config is the runtime configuration. Defaults are overridden by
// environment variables, which are overridden by flags.
type Config struct {
	LogLevel string
	LogJSON  bool

	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMHeaders    map[string]string // extra headers for OpenAI compatible gateways

	GoogleMapsAPIKey string
	GoogleProject    string

	Cache         string // memory, redis, duckdb
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DuckDBPath    string

	Similarity string
	TraceHTTP  bool

	Options resolver.Options
}

func defaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		Cache:      "memory",
		RedisAddr:  "localhost:6379",
		DuckDBPath: "locator.duckdb",
		Similarity: "jaccard",
		Options:    resolver.DefaultOptions(),
	}
}

// loadEnv fills c from the environment, skipping values whose flag was set.
func (c *Config) loadEnv(flags *pflag.FlagSet) error {
	changed := func(name string) bool {
		f := flags.Lookup(name)

		return f != nil && f.Changed
	}

	var errs []error

	str := func(flag, env string, dst *string) {
		if v, ok := os.LookupEnv(env); ok && !changed(flag) {
			*dst = v
		}
	}

	integer := func(flag, env string, dst *int) {
		if v, ok := os.LookupEnv(env); ok && !changed(flag) {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", env, err))

				return
			}

			*dst = n
		}
	}

	boolean := func(flag, env string, dst *bool) {
		if v, ok := os.LookupEnv(env); ok && !changed(flag) {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", env, err))

				return
			}

			*dst = b
		}
	}

	duration := func(flag, env string, dst *time.Duration) {
		if v, ok := os.LookupEnv(env); ok && !changed(flag) {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", env, err))

				return
			}

			*dst = d
		}
	}

	headers := func(flag, env string, dst *map[string]string) {
		if v, ok := os.LookupEnv(env); ok && !changed(flag) {
			h, err := parseHeaders(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", env, err))

				return
			}

			*dst = h
		}
	}

	str("log-level", "LOCATOR_LOG_LEVEL", &c.LogLevel)
	boolean("log-json", "LOCATOR_LOG_JSON", &c.LogJSON)
	str("", "OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("", "OPENAI_BASE_URL", &c.OpenAIBaseURL)
	headers("llm-header", "LOCATOR_LLM_HEADERS", &c.LLMHeaders)
	str("", "GOOGLE_MAPS_API_KEY", &c.GoogleMapsAPIKey)
	str("", "GOOGLE_CLOUD_PROJECT", &c.GoogleProject)
	str("cache", "LOCATOR_CACHE", &c.Cache)
	str("redis-addr", "REDIS_ADDR", &c.RedisAddr)
	str("", "REDIS_PASSWORD", &c.RedisPassword)
	integer("redis-db", "REDIS_DB", &c.RedisDB)
	str("duckdb-path", "LOCATOR_DUCKDB_PATH", &c.DuckDBPath)
	duration("cache-ttl", "LOCATOR_CACHE_TTL", &c.Options.CacheTTL)
	str("model", "LOCATOR_MODEL", &c.Options.Model)
	duration("llm-timeout", "LOCATOR_LLM_TIMEOUT", &c.Options.LLMTimeout)
	duration("geocode-timeout", "LOCATOR_GEOCODE_TIMEOUT", &c.Options.GeocodeTimeout)
	integer("retries", "LOCATOR_RETRIES", &c.Options.Retries)
	str("similarity", "LOCATOR_SIMILARITY", &c.Similarity)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}

	return nil
}

// parseHeaders reads "Name=value" pairs separated by commas.
func parseHeaders(s string) (map[string]string, error) {
	headers := make(map[string]string)

	for _, pair := range strings.Split(s, ",") {
		if pair = strings.TrimSpace(pair); pair == "" {
			continue
		}

		name, value, ok := strings.Cut(pair, "=")
		if name = strings.TrimSpace(name); !ok || name == "" {
			return nil, fmt.Errorf("malformed header %q, want Name=value", pair)
		}

		headers[name] = strings.TrimSpace(value)
	}

	return headers, nil
}

// validate checks the settings needed to resolve.
func (c *Config) validate() error {
	var errs []error

	if err := c.Options.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Cache {
	case "memory", "redis", "duckdb":
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache))
	}

	if _, ok := resolver.SimilarityByName(c.Similarity); !ok {
		errs = append(errs, fmt.Errorf("unknown similarity %q", c.Similarity))
	}

	return errors.Join(errs...)
}
