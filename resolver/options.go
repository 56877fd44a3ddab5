// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"errors"
	"fmt"
	"time"
)

// Options tune the resolver and its external calls.
type Options struct {
	CacheTTL            time.Duration
	LLMTimeout          time.Duration
	GeocodeTimeout      time.Duration
	Retries             int           // extra attempts for retryable failures
	RetryBackoff        time.Duration // wait before the first retry, doubled afterwards
	SimilarityThreshold float64       // verification passes when similarity is above it
	Model               string
	Temperature         float32
	MaxTokens           int
	H3Resolution        int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		CacheTTL:            DefaultCacheTTL,
		LLMTimeout:          10 * time.Second,
		GeocodeTimeout:      10 * time.Second,
		Retries:             1,
		RetryBackoff:        500 * time.Millisecond,
		SimilarityThreshold: 0.7,
		Model:               "gpt-4o-mini",
		Temperature:         0.1,
		MaxTokens:           300,
		H3Resolution:        9,
	}
}

// Validate checks that every option is usable.
func (o Options) Validate() error {
	var errs []error

	if o.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive (got %v)", o.CacheTTL))
	}

	if o.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("llm timeout must be positive (got %v)", o.LLMTimeout))
	}

	if o.GeocodeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("geocode timeout must be positive (got %v)", o.GeocodeTimeout))
	}

	if o.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries can't be negative (got %d)", o.Retries))
	}

	if o.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("retry backoff can't be negative (got %v)", o.RetryBackoff))
	}

	if o.SimilarityThreshold < 0 || o.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("similarity threshold must be between 0 and 1 (got %f)", o.SimilarityThreshold))
	}

	if o.Model == "" {
		errs = append(errs, errors.New("model can't be empty"))
	}

	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2 (got %f)", o.Temperature))
	}

	if o.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max tokens must be positive (got %d)", o.MaxTokens))
	}

	if o.H3Resolution < 0 || o.H3Resolution > 15 {
		errs = append(errs, fmt.Errorf("h3 resolution must be between 0 and 15 (got %d)", o.H3Resolution))
	}

	return errors.Join(errs...)
}
