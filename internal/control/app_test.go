package control

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/duchph/approvebot/internal/core/config"
	"github.com/duchph/approvebot/internal/infra/excel"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName failed: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, val); err != nil {
				t.Fatalf("SetCellValue failed: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "accounts.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{
		Browser: config.BrowserConfig{
			Kind:       "chrome",
			DebugAddr:  "localhost:9222",
			BaseURL:    "https://arms.example.com/approvals",
			NavTimeout: "50s",
		},
		Input: excel.Source{
			Path: writeWorkbook(t, [][]string{
				{"OU ID", "Account Name"},
				{"ou-1", "Acme"},
				{"ou-2", "Globex"},
			}),
			Sheet:      "Sheet1",
			IDColumn:   "OU ID",
			NameColumn: "Account Name",
		},
		Run: config.RunConfig{
			Approvers:    []string{"alice", "bob", "carol"},
			MatchMode:    config.MatchEquals,
			PerItemDelay: "1ms",
		},
		Retry: config.RetryConfig{
			Inner: config.PolicyConfig{MaxAttempts: 3, BaseDelay: "1ms"},
			Outer: config.PolicyConfig{MaxAttempts: 2, BaseDelay: "1ms"},
		},
		Checkpoint: config.CheckpointConfig{Backend: config.BackendMemory},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return cfg
}

func TestApp_Lifecycle(t *testing.T) {
	cfg := testConfig(t)

	app, err := NewApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if len(app.records) != 2 {
		t.Errorf("expected 2 records, got %d", len(app.records))
	}
	if app.healthServer != nil {
		t.Error("expected no health server when port is 0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestNewStore_Backends(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.CheckpointConfig
		wantErr bool
	}{
		{
			name: "file backend",
			cfg:  config.CheckpointConfig{Backend: config.BackendFile, Path: "progress.json"},
		},
		{
			name: "memory backend",
			cfg:  config.CheckpointConfig{Backend: config.BackendMemory},
		},
		{
			name:    "unknown backend",
			cfg:     config.CheckpointConfig{Backend: "sqlite"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}
			if store == nil {
				t.Fatal("store is nil")
			}
		})
	}
}
