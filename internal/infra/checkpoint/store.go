package checkpoint

import (
	"context"

	"github.com/duchph/approvebot/internal/core/domain"
)

// Store persists the full progress document. Implementations must write
// atomically: a reader (or a process killed mid-write) must never observe a
// partially written state.
type Store interface {
	// Load reads the persisted state. A missing or malformed document yields
	// a fresh empty state, never an error; only infrastructure failures
	// (unreachable backend) are reported.
	Load(ctx context.Context) (*domain.Progress, error)

	// Save durably writes the full state.
	Save(ctx context.Context, p *domain.Progress) error
}
