// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"time"
)

// callWithRetry runs fn under a per attempt timeout and repeats it up to
// retries times while the failure is retryable. The wait doubles after each
// attempt.
func callWithRetry[T any](
	ctx context.Context,
	timeout time.Duration,
	retries int,
	backoff time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		v, err := fn(callCtx)

		cancel()

		if err == nil {
			return v, nil
		}

		if attempt >= retries || !IsRetryable(err) || ctx.Err() != nil {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, err
		case <-time.After(backoff << attempt):
		}
	}
}
