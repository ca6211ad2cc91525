package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duchph/approvebot/internal/core/domain"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	store := NewFileStore(path)
	ctx := context.Background()

	p := domain.NewProgress()
	p.SetAttempt("100||acme", 2, 1, 2)
	p.SetCompleted("200||globex")
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.IsCompleted("200||globex") {
		t.Errorf("expected 200||globex completed after reload")
	}
	li, ai := loaded.Resume("100||acme")
	if li != 1 || ai != 2 {
		t.Errorf("Resume = (%d, %d), want (1, 2)", li, ai)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	p, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(p.CompletedKeys) != 0 || len(p.InProgress) != 0 {
		t.Errorf("expected empty state for missing file, got %+v", p)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	if err := os.WriteFile(path, []byte(`{"completed_keys": ["a", truncated`), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load on corrupt file should not fail, got: %v", err)
	}
	if len(p.CompletedKeys) != 0 || len(p.InProgress) != 0 || p.LastError != nil {
		t.Errorf("expected empty state for corrupt file, got %+v", p)
	}
}

func TestFileStore_JSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	store := NewFileStore(path)
	ctx := context.Background()

	p := domain.NewProgress()
	p.SetAttempt("100||acme", 2, 0, 1)
	p.SetLastError(domain.Record{Row: 2, OUID: "100", AccountName: "Acme"}, os.ErrDeadlineExceeded)
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not valid JSON: %v", err)
	}
	for _, field := range []string{"completed_keys", "in_progress", "last_error"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing field %q in persisted document", field)
		}
	}
	for _, field := range []string{"excel_row", "link_index", "approver_index", "updated_at"} {
		if !strings.Contains(string(raw["in_progress"]), field) {
			t.Errorf("in_progress entry missing field %q", field)
		}
	}
	for _, field := range []string{"excel_row", "ou_id", "account_name", "error", "time"} {
		if !strings.Contains(string(raw["last_error"]), field) {
			t.Errorf("last_error missing field %q", field)
		}
	}
}

func TestFileStore_AtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	store := NewFileStore(path)
	ctx := context.Background()

	p := domain.NewProgress()
	p.SetCompleted("first")
	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.SetCompleted("second")
	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	// The temp file must not survive a successful save.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after save")
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.CompletedKeys) != 2 {
		t.Errorf("expected 2 completed keys, got %d", len(loaded.CompletedKeys))
	}
}
