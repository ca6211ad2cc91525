package checkpoint

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/duchph/approvebot/internal/core/domain"
)

// MemoryStore keeps the progress document in memory. Used by tests and by
// dry runs where nothing should touch disk. The document is round-tripped
// through JSON on Save so callers cannot alias the stored state.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	// SaveCount tracks persistence calls, for tests asserting the
	// checkpoint-before-attempt discipline.
	SaveCount int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return domain.NewProgress(), nil
	}
	var p domain.Progress
	if err := json.Unmarshal(s.data, &p); err != nil {
		return domain.NewProgress(), nil
	}
	p.Normalize()
	return &p, nil
}

func (s *MemoryStore) Save(ctx context.Context, p *domain.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.SaveCount++
	return nil
}
