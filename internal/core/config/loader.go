package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/duchph/approvebot/internal/infra/browser"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Browser.Kind == "" {
		c.Browser.Kind = browser.KindChrome
	}
	if c.Browser.DebugAddr == "" {
		c.Browser.DebugAddr = "localhost:9222"
	}
	if c.Browser.NavTimeout == "" {
		c.Browser.NavTimeout = "50s"
	}
	if c.Input.Sheet == "" {
		c.Input.Sheet = "Sheet1"
	}
	if c.Run.MatchMode == "" {
		c.Run.MatchMode = MatchEquals
	}
	if c.Run.PerItemDelay == "" {
		c.Run.PerItemDelay = "300ms"
	}
	if c.Retry.Inner.MaxAttempts == 0 {
		c.Retry.Inner.MaxAttempts = 3
	}
	if c.Retry.Inner.BaseDelay == "" {
		c.Retry.Inner.BaseDelay = "1s"
	}
	if c.Retry.Outer.MaxAttempts == 0 {
		c.Retry.Outer.MaxAttempts = 2
	}
	if c.Retry.Outer.BaseDelay == "" {
		c.Retry.Outer.BaseDelay = "2s"
	}
	if c.Checkpoint.Backend == "" {
		c.Checkpoint.Backend = BackendFile
	}
	if c.Checkpoint.Path == "" {
		c.Checkpoint.Path = "progress.json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for errors that would otherwise only
// surface mid-run. Duration strings are parsed here so the typed accessors
// can assume they are well formed.
func (c *AppConfig) Validate() error {
	if !browser.SupportedKind(c.Browser.Kind) {
		return fmt.Errorf("unsupported browser kind %q", c.Browser.Kind)
	}
	if c.Browser.BaseURL == "" {
		return fmt.Errorf("browser.base_url is required")
	}
	if c.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	if c.Input.IDColumn == "" || c.Input.NameColumn == "" {
		return fmt.Errorf("input.id_column and input.name_column are required")
	}
	if len(c.Run.Approvers) != RequiredApprovers {
		return fmt.Errorf("run.approvers must list exactly %d approvers, got %d",
			RequiredApprovers, len(c.Run.Approvers))
	}
	switch c.Run.MatchMode {
	case MatchEquals, MatchStartsWith, MatchPlain:
	default:
		return fmt.Errorf("unsupported match mode %q", c.Run.MatchMode)
	}
	switch c.Checkpoint.Backend {
	case BackendFile:
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("checkpoint.path is required for the file backend")
		}
	case BackendRedis:
		if c.Checkpoint.Redis.URL == "" {
			return fmt.Errorf("checkpoint.redis.url is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported checkpoint backend %q", c.Checkpoint.Backend)
	}
	if c.Retry.Inner.MaxAttempts < 1 || c.Retry.Outer.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}

	durations := map[string]string{
		"browser.nav_timeout":    c.Browser.NavTimeout,
		"run.per_item_delay":     c.Run.PerItemDelay,
		"retry.inner.base_delay": c.Retry.Inner.BaseDelay,
		"retry.outer.base_delay": c.Retry.Outer.BaseDelay,
	}
	for field, raw := range durations {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", field, err)
		}
	}

	return nil
}
