package database

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type TxOptions struct {
	MaxRetries int
}

func DefaultTxOptions() TxOptions {
	return TxOptions{MaxRetries: 3}
}

// WithTransaction runs fn inside a transaction. Transient failures (lock
// contention, serialization or deadlock aborts) restart the whole closure, so
// fn must not have side effects outside tx.
func WithTransaction(ctx context.Context, db *gorm.DB, opts TxOptions, fn func(tx *gorm.DB) error) error {
	var lastErr error
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}
		if attempt == opts.MaxRetries {
			return errors.Wrapf(err, "max retries (%d) exceeded", opts.MaxRetries)
		}
		lastErr = err

		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return lastErr
}
