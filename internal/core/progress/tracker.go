package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/duchph/approvebot/internal/core/domain"
	"github.com/duchph/approvebot/internal/infra/checkpoint"
)

// Tracker owns the in-memory progress state and pushes every mutation to the
// store synchronously. The run loop is the only writer, but the progress
// server reads snapshots from handler goroutines, so all access goes through
// the mutex.
type Tracker struct {
	store checkpoint.Store
	mu    sync.RWMutex
	state *domain.Progress
}

// Load reads the persisted state into a new Tracker.
func Load(ctx context.Context, store checkpoint.Store) (*Tracker, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return &Tracker{store: store, state: state}, nil
}

// IsCompleted reports whether key has already fully finished.
func (t *Tracker) IsCompleted(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.IsCompleted(key)
}

// ResumePosition returns the saved (linkIndex, approverIndex) for key,
// defaulting to (0, 0).
func (t *Tracker) ResumePosition(key string) (linkIndex, approverIndex int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Resume(key)
}

// RecordAttempt checkpoints the position that is about to be attempted. It
// must be called strictly before the attempt itself, so a crash re-runs at
// most this one submission.
func (t *Tracker) RecordAttempt(ctx context.Context, key string, excelRow, linkIndex, approverIndex int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.SetAttempt(key, excelRow, linkIndex, approverIndex)
	if err := t.store.Save(ctx, t.state); err != nil {
		return fmt.Errorf("failed to checkpoint attempt: %w", err)
	}
	return nil
}

// RecordCompletion marks key fully finished and drops its in-flight entry.
func (t *Tracker) RecordCompletion(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.SetCompleted(key)
	if err := t.store.Save(ctx, t.state); err != nil {
		return fmt.Errorf("failed to checkpoint completion: %w", err)
	}
	return nil
}

// RecordFatalError persists the failure context of a record that exhausted
// every retry. The in-flight entry stays so a later run resumes it.
func (t *Tracker) RecordFatalError(ctx context.Context, rec domain.Record, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.SetLastError(rec, cause)
	if err := t.store.Save(ctx, t.state); err != nil {
		return fmt.Errorf("failed to checkpoint fatal error: %w", err)
	}
	return nil
}

// Snapshot is a read-only view of the current state for status reporting.
type Snapshot struct {
	CompletedKeys []string                   `json:"completed_keys"`
	InProgress    map[string]domain.Position `json:"in_progress"`
	LastError     *domain.FailureRecord      `json:"last_error,omitempty"`
	CompletedAt   time.Time                  `json:"completed_at,omitzero"`
}

// Snapshot copies the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, len(t.state.CompletedKeys))
	copy(keys, t.state.CompletedKeys)
	inProg := make(map[string]domain.Position, len(t.state.InProgress))
	for k, v := range t.state.InProgress {
		inProg[k] = v
	}
	var lastErr *domain.FailureRecord
	if t.state.LastError != nil {
		e := *t.state.LastError
		lastErr = &e
	}
	return Snapshot{
		CompletedKeys: keys,
		InProgress:    inProg,
		LastError:     lastErr,
		CompletedAt:   t.state.CompletedAt,
	}
}
