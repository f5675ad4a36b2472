package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/orionchat/registry/internal/domain"
)

const storageRetries = 2

// withStorageRetry runs fn, retrying a bounded number of times when the
// failure is a transient storage fault. Only idempotent operations may be
// wrapped: register is never retried here, since a retry after a timeout of
// unknown outcome risks a second account.
func withStorageRetry(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(storageRetries, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := fn(attemptCtx)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}
