// Package util provides shared utility functions for hotcache.
package util

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"hotcache/internal/common"
)

// ReloadRetryOptions returns retry options for reloading a resource during a
// sync. Fixed delay, permanent failures are not retried, and only the last
// error is returned so callers see the loader's own error.
func ReloadRetryOptions(ctx context.Context, attempts uint, delay time.Duration) []retry.Option {
	if attempts == 0 {
		attempts = 1
	}
	return []retry.Option{
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(IsRetryableLoad),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
}

// DefaultRetryOptions returns sensible defaults for retry operations: three
// attempts with backoff. Store.ReadFile uses it to wait out a writer's lock.
func DefaultRetryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Attempts(3),
		retry.Delay(100 * time.Millisecond),
		retry.MaxDelay(1 * time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
}

// Retry executes fn with retry logic, using DefaultRetryOptions when no
// options are given. Returns the last error if all attempts fail.
func Retry(ctx context.Context, fn func() error, opts ...retry.Option) error {
	if len(opts) == 0 {
		opts = DefaultRetryOptions(ctx)
	}
	return retry.Do(fn, opts...)
}

// IsRetryableLoad returns false for load errors that cannot change between
// attempts: a loader that rejects the key kind, or a dependency cycle.
func IsRetryableLoad(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, common.ErrUnsupportedKeyKind) && !errors.Is(err, common.ErrCycle)
}
