package run

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duchph/approvebot/internal/core/domain"
	"github.com/duchph/approvebot/internal/core/progress"
	"github.com/duchph/approvebot/internal/run/metrics"
)

// RunnerConfig controls the top-level loop behavior.
type RunnerConfig struct {
	// Resume skips records whose key is already in completed_keys.
	Resume bool
	// StopOnError halts the whole run on the first record failure instead
	// of continuing with the next record.
	StopOnError bool
}

// Summary is the outcome of one run over the input list.
type Summary struct {
	Completed int
	Skipped   int
	Failed    int
}

// recordProcessor is what the runner needs from the executor.
type recordProcessor interface {
	ProcessRecord(ctx context.Context, rec domain.Record) error
}

// Runner iterates the input records in order, applies resume-skip logic and
// decides whether a record failure halts or is skipped. Every terminal
// failure is persisted in last_error before control proceeds.
type Runner struct {
	cfg     RunnerConfig
	exec    recordProcessor
	tracker *progress.Tracker
	log     *slog.Logger
}

// NewRunner creates a runner over the given executor and tracker.
func NewRunner(cfg RunnerConfig, exec recordProcessor, tracker *progress.Tracker) *Runner {
	return &Runner{
		cfg:     cfg,
		exec:    exec,
		tracker: tracker,
		log:     slog.Default(),
	}
}

// Run processes all records sequentially. It returns the summary together
// with the halting error when stop-on-error ended the run early.
func (r *Runner) Run(ctx context.Context, records []domain.Record) (Summary, error) {
	var sum Summary

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		key := rec.Key()
		if r.cfg.Resume && r.tracker.IsCompleted(key) {
			sum.Skipped++
			metrics.RecordsProcessed.WithLabelValues("skipped").Inc()
			r.log.Info("Skipping completed record", "ou_id", rec.OUID, "account", rec.AccountName)
			continue
		}

		err := r.exec.ProcessRecord(ctx, rec)
		r.updateGauges()
		if err == nil {
			sum.Completed++
			metrics.RecordsProcessed.WithLabelValues("completed").Inc()
			r.log.Info("Record completed", "ou_id", rec.OUID, "account", rec.AccountName)
			continue
		}

		sum.Failed++
		metrics.RecordsProcessed.WithLabelValues("failed").Inc()
		r.log.Error("Record failed",
			"row", rec.Row, "ou_id", rec.OUID, "account", rec.AccountName, "error", err)

		if perr := r.tracker.RecordFatalError(ctx, rec, err); perr != nil {
			r.log.Error("Failed to persist fatal error", "error", perr)
		}

		if r.cfg.StopOnError {
			return sum, fmt.Errorf("halted at row %d (OU %q): %w", rec.Row, rec.OUID, err)
		}
	}

	return sum, nil
}

func (r *Runner) updateGauges() {
	snap := r.tracker.Snapshot()
	metrics.CompletedKeys.Set(float64(len(snap.CompletedKeys)))
	metrics.InProgressKeys.Set(float64(len(snap.InProgress)))
}
