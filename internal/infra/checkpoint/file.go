package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/duchph/approvebot/internal/core/domain"
)

// FileStore persists progress as a JSON file, written via a temporary file
// plus atomic rename so an interrupted write leaves the previous valid state
// intact.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the progress file. Absence and corruption both yield a fresh
// empty state: a half-finished run must never be blocked by a bad file.
func (s *FileStore) Load(ctx context.Context) (*domain.Progress, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Progress file unreadable, starting fresh", "path", s.path, "error", err)
		}
		return domain.NewProgress(), nil
	}

	var p domain.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("Progress file malformed, starting fresh", "path", s.path, "error", err)
		return domain.NewProgress(), nil
	}
	p.Normalize()
	return &p, nil
}

// Save writes the full state to a sibling temp file and renames it over the
// target.
func (s *FileStore) Save(ctx context.Context, p *domain.Progress) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create progress dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write progress temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}
