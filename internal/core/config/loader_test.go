package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const validConfig = `
browser:
  kind: chrome
  base_url: https://arms.example.com/approvals
input:
  path: accounts.xlsx
  id_column: OU ID
  name_column: Account Name
run:
  approvers:
    - alice
    - bob
    - carol
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_BASE_URL", "https://arms.example.com/approvals")
	defer os.Unsetenv("TEST_BASE_URL")

	configContent := strings.Replace(validConfig,
		"https://arms.example.com/approvals", "${TEST_BASE_URL}", 1)

	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Browser.BaseURL != "https://arms.example.com/approvals" {
		t.Errorf("Expected base URL https://arms.example.com/approvals, got %s", cfg.Browser.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Browser.DebugAddr != "localhost:9222" {
		t.Errorf("Expected default debug addr localhost:9222, got %s", cfg.Browser.DebugAddr)
	}
	if cfg.Input.Sheet != "Sheet1" {
		t.Errorf("Expected default sheet Sheet1, got %s", cfg.Input.Sheet)
	}
	if cfg.Run.MatchMode != MatchEquals {
		t.Errorf("Expected default match mode equals, got %s", cfg.Run.MatchMode)
	}
	if !cfg.ResumeEnabled() {
		t.Error("Expected resume enabled by default")
	}
	if cfg.Checkpoint.Backend != BackendFile || cfg.Checkpoint.Path != "progress.json" {
		t.Errorf("Expected file backend with progress.json, got %s/%s",
			cfg.Checkpoint.Backend, cfg.Checkpoint.Path)
	}

	inner, outer := cfg.Policies()
	if inner.MaxAttempts != 3 || inner.BaseDelay != time.Second {
		t.Errorf("Unexpected inner policy: %+v", inner)
	}
	if outer.MaxAttempts != 2 || outer.BaseDelay != 2*time.Second {
		t.Errorf("Unexpected outer policy: %+v", outer)
	}
	if cfg.ItemDelay() != 300*time.Millisecond {
		t.Errorf("Expected 300ms item delay, got %v", cfg.ItemDelay())
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{
			name:    "unsupported browser kind",
			mutate:  func(c *AppConfig) { c.Browser.Kind = "firefox" },
			wantErr: "unsupported browser kind",
		},
		{
			name:    "missing base url",
			mutate:  func(c *AppConfig) { c.Browser.BaseURL = "" },
			wantErr: "base_url is required",
		},
		{
			name:    "wrong approver count",
			mutate:  func(c *AppConfig) { c.Run.Approvers = []string{"alice"} },
			wantErr: "exactly 3 approvers",
		},
		{
			name:    "bad match mode",
			mutate:  func(c *AppConfig) { c.Run.MatchMode = "regex" },
			wantErr: "unsupported match mode",
		},
		{
			name:    "redis backend without url",
			mutate:  func(c *AppConfig) { c.Checkpoint.Backend = BackendRedis },
			wantErr: "redis.url is required",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *AppConfig) { c.Checkpoint.Backend = "sqlite" },
			wantErr: "unsupported checkpoint backend",
		},
		{
			name:    "bad duration",
			mutate:  func(c *AppConfig) { c.Run.PerItemDelay = "fast" },
			wantErr: "invalid duration for run.per_item_delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validConfig))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
