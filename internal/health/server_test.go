package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/duchph/approvebot/internal/core/progress"
	"github.com/duchph/approvebot/internal/infra/checkpoint"
)

func TestServer_Endpoints(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	tr, err := progress.Load(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordCompletion(ctx, "100||acme"); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordAttempt(ctx, "200||globex", 3, 1, 0); err != nil {
		t.Fatal(err)
	}

	s := NewServer(tr, 0)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("health response not JSON: %v", err)
	}
	if health["completed"].(float64) != 1 || health["in_progress"].(float64) != 1 {
		t.Errorf("health counts = %v", health)
	}

	rec = httptest.NewRecorder()
	s.handleProgress(rec, httptest.NewRequest("GET", "/progress", nil))
	var snap progress.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("progress response not JSON: %v", err)
	}
	if len(snap.CompletedKeys) != 1 || snap.CompletedKeys[0] != "100||acme" {
		t.Errorf("completed keys = %v", snap.CompletedKeys)
	}
	pos, ok := snap.InProgress["200||globex"]
	if !ok || pos.LinkIndex != 1 {
		t.Errorf("in_progress = %v", snap.InProgress)
	}
}
