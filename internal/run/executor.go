package run

import (
	"context"
	"log/slog"
	"time"

	"github.com/duchph/approvebot/internal/core/domain"
	"github.com/duchph/approvebot/internal/core/progress"
	"github.com/duchph/approvebot/internal/core/retry"
	"github.com/duchph/approvebot/internal/infra/browser"
	"github.com/duchph/approvebot/internal/run/metrics"
)

// ExecutorConfig holds the per-record execution settings.
type ExecutorConfig struct {
	Approvers     []string
	PerItemDelay  time.Duration
	SubmitTimeout time.Duration

	// Inner wraps a single approver submission; Outer wraps a whole
	// record, inner retries included. A failure surviving the inner budget
	// is retried once more as a whole unit by the outer one, resuming from
	// the last checkpoint.
	Inner retry.Policy
	Outer retry.Policy
}

// Executor applies every approver to every discovered target of one record,
// checkpointing before each submission so a crash re-runs at most one.
type Executor struct {
	cfg     ExecutorConfig
	driver  browser.Driver
	tracker *progress.Tracker
	log     *slog.Logger
}

// NewExecutor creates an executor over the given driver and tracker.
func NewExecutor(cfg ExecutorConfig, driver browser.Driver, tracker *progress.Tracker) *Executor {
	return &Executor{
		cfg:     cfg,
		driver:  driver,
		tracker: tracker,
		log:     slog.Default(),
	}
}

// ProcessRecord runs the full nested sequence for one record under the outer
// retry policy. Each outer attempt re-reads the resume position, so a retry
// picks up from the last checkpointed submission rather than the beginning.
func (e *Executor) ProcessRecord(ctx context.Context, rec domain.Record) error {
	return retry.Do(ctx, e.cfg.Outer, func() error {
		return e.processOnce(ctx, rec)
	}, func(err error, attempt int) {
		metrics.RetriesTotal.WithLabelValues("outer").Inc()
		e.log.Warn("Record attempt failed, retrying whole record",
			"ou_id", rec.OUID, "account", rec.AccountName, "attempt", attempt, "error", err)
		if _, rerr := e.driver.EnsureSession(ctx); rerr != nil {
			e.log.Debug("Session recovery failed", "error", rerr)
		}
	})
}

func (e *Executor) processOnce(ctx context.Context, rec domain.Record) error {
	key := rec.Key()
	startLink, startApprover := e.tracker.ResumePosition(key)

	sess, err := e.driver.EnsureSession(ctx)
	if err != nil {
		return err
	}

	// Targets are discovered fresh on every attempt; only their position is
	// stable enough to persist.
	targets, err := e.driver.DiscoverTargets(ctx, sess, rec)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		metrics.DriverErrors.WithLabelValues("structural").Inc()
		return domain.Structuralf("discover",
			"no matching target found for OU %q (account %q)", rec.OUID, rec.AccountName)
	}

	// Discovery is not guaranteed stable across runs. A stale saved index
	// means upstream data changed; start the record over instead of failing.
	if startLink >= len(targets) {
		e.log.Warn("Saved link index out of range, resetting to 0",
			"key", key, "saved", startLink, "targets", len(targets))
		startLink, startApprover = 0, 0
	}
	if startApprover >= len(e.cfg.Approvers) {
		e.log.Warn("Saved approver index out of range, resetting to 0",
			"key", key, "saved", startApprover)
		startApprover = 0
	}

	e.log.Info("Processing record",
		"ou_id", rec.OUID, "account", rec.AccountName, "targets", len(targets),
		"resume_link", startLink, "resume_approver", startApprover)

	for li := startLink; li < len(targets); li++ {
		firstApprover := 0
		if li == startLink {
			firstApprover = startApprover
		}

		for ai := firstApprover; ai < len(e.cfg.Approvers); ai++ {
			approver := e.cfg.Approvers[ai]

			// Checkpoint strictly before the attempt.
			if err := e.tracker.RecordAttempt(ctx, key, rec.Row, li, ai); err != nil {
				return err
			}

			t := targets[li]
			err := retry.Do(ctx, e.cfg.Inner, func() error {
				return e.driver.SubmitApprover(ctx, sess, t, approver, e.cfg.SubmitTimeout)
			}, func(err error, attempt int) {
				metrics.RetriesTotal.WithLabelValues("inner").Inc()
				e.log.Warn("Submission failed, retrying",
					"ou_id", rec.OUID, "link", li, "approver", approver,
					"attempt", attempt, "error", err)
				if fresh, rerr := e.driver.EnsureSession(ctx); rerr == nil {
					sess = fresh
				}
			})
			if err != nil {
				if domain.IsRetryable(err) {
					metrics.DriverErrors.WithLabelValues("transient").Inc()
				} else {
					metrics.DriverErrors.WithLabelValues("structural").Inc()
				}
				return err
			}

			metrics.ApproversSubmitted.Inc()
			e.log.Info("Approver submitted",
				"ou_id", rec.OUID, "link", li+1, "links", len(targets), "approver", approver)

			if e.cfg.PerItemDelay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(e.cfg.PerItemDelay):
				}
			}
		}
	}

	return e.tracker.RecordCompletion(ctx, key)
}
