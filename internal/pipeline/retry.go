package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"go-tennis-pipeline/internal/model"
)

// newBackOff turns a retry config into a bounded exponential policy. The
// returned policy stops once ctx is done.
func newBackOff(ctx context.Context, cfg model.RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	if cfg.Multiplier >= 1 {
		b.Multiplier = cfg.Multiplier
	}
	// attempts are bounded by MaxAttempts, not wall time
	b.MaxElapsedTime = 0

	retries := cfg.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// executeWithRetry runs the task until it succeeds or the policy gives up,
// returning the number of attempts made.
func executeWithRetry(ctx context.Context, logger *zap.Logger, cfg model.RetryConfig, stageID string, task Task) (int, error) {
	attempts := 0
	op := func() error {
		attempts++
		err := task.Execute(ctx)
		if err == nil {
			return nil
		}
		if !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("🔄 stage failed, retrying",
			zap.String("stage", stageID),
			zap.Int("attempt", attempts),
			zap.Duration("next_in", next),
			zap.Error(err))
	}
	err := backoff.RetryNotify(op, newBackOff(ctx, cfg), notify)
	return attempts, err
}

// retryable reports whether another attempt may help. Configuration errors and
// cancellation never are.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var ce *model.ConfigurationError
	if errors.As(err, &ce) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
