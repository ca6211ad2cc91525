package browser

import (
	"context"
	"time"

	"github.com/duchph/approvebot/internal/core/domain"
)

// Target is one "New approver" link discovered for a record. Targets are
// re-discovered on every attempt and addressed only by their position in the
// discovery order; the URL is never persisted.
type Target struct {
	Index int
	URL   string
}

// Driver performs navigation, lookup and submission against the remote
// system. The session handle is threaded through every call explicitly so
// implementations hold no hidden global tab state; EnsureSession is
// idempotent and returns the current (possibly re-attached) handle.
//
// All blocking calls respect ctx and their own per-call timeouts; these are
// the only suspension points in the system. Errors are classified with
// domain.Transient / domain.Structural at the point of failure.
type Driver interface {
	// EnsureSession re-attaches to or creates the automation tab.
	EnsureSession(ctx context.Context) (*Session, error)

	// Navigate loads url in the automation tab.
	Navigate(ctx context.Context, s *Session, url string) error

	// WaitIdle blocks until the remote busy indicator clears or timeout
	// elapses. A timeout is tolerated, not fatal.
	WaitIdle(ctx context.Context, s *Session, timeout time.Duration) error

	// DiscoverTargets searches for the record and returns its approver
	// links in page order. May return an empty slice.
	DiscoverTargets(ctx context.Context, s *Session, rec domain.Record) ([]Target, error)

	// SubmitApprover navigates to the target's page, fills the approver
	// field from the autocomplete suggestions and submits the form.
	SubmitApprover(ctx context.Context, s *Session, t Target, approver string, timeout time.Duration) error

	// Close releases the browser connection. The attached browser itself
	// stays open; only the automation session ends.
	Close() error
}
