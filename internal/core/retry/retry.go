package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/duchph/approvebot/internal/core/domain"
)

// Policy defines one retry level. The runner uses two independent levels:
// a tight inner policy around a single submission and a wider outer policy
// around a whole record.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// RecoverFunc runs between attempts to restore a usable state, typically
// re-attaching the automation tab. It is best-effort: a panic inside it is
// swallowed and logged, never propagated, and it cannot abort the loop.
type RecoverFunc func(err error, attempt int)

// Do runs op up to p.MaxAttempts times with linear backoff
// (BaseDelay * attempt). Only errors classified retryable by
// domain.IsRetryable are retried; onFailure, when set, runs before each
// backoff sleep. On a non-retryable error or exhausted attempts the last
// error is returned unchanged, so callers see the original failure rather
// than a wrapper fabricated here.
func Do(ctx context.Context, p Policy, op func() error, onFailure RecoverFunc) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !domain.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		if onFailure != nil {
			runRecover(onFailure, lastErr, attempt)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(p.BaseDelay * time.Duration(attempt)):
		}
	}
	return lastErr
}

func runRecover(fn RecoverFunc, err error, attempt int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Recovery action panicked", "panic", r, "attempt", attempt)
		}
	}()
	fn(err, attempt)
}
