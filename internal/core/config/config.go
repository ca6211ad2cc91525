package config

import (
	"time"

	"github.com/duchph/approvebot/internal/core/retry"
	"github.com/duchph/approvebot/internal/infra/browser"
	"github.com/duchph/approvebot/internal/infra/checkpoint"
	"github.com/duchph/approvebot/internal/infra/excel"
)

// RequiredApprovers is the fixed length of the approver list. Every record
// gets exactly these submissions per target.
const RequiredApprovers = 3

// Checkpoint backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Match modes for the listing search, mirroring what the remote table
// supports.
const (
	MatchEquals     = "equals"
	MatchStartsWith = "startswith"
	MatchPlain      = "plain"
)

// AppConfig represents the top-level configuration. Durations are YAML
// strings ("300ms", "50s") parsed during validation.
type AppConfig struct {
	Browser    BrowserConfig    `yaml:"browser"`
	Input      excel.Source     `yaml:"input"`
	Run        RunConfig        `yaml:"run"`
	Retry      RetryConfig      `yaml:"retry"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BrowserConfig holds the driver backend settings.
type BrowserConfig struct {
	Kind       string `yaml:"kind"`       // chrome|edge
	DebugAddr  string `yaml:"debug_addr"` // e.g. localhost:9222
	BaseURL    string `yaml:"base_url"`
	NavTimeout string `yaml:"nav_timeout"`
}

// RunConfig holds the batch behavior settings. Resume is a pointer so an
// absent key keeps its enabled default.
type RunConfig struct {
	Approvers    []string `yaml:"approvers"`
	MatchMode    string   `yaml:"match_mode"` // equals|startswith|plain
	PerItemDelay string   `yaml:"per_item_delay"`
	Resume       *bool    `yaml:"resume"`
	StopOnError  bool     `yaml:"stop_on_error"`
}

// PolicyConfig is one retry level.
type PolicyConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	BaseDelay   string `yaml:"base_delay"`
}

// RetryConfig holds the two independent retry levels: inner around a single
// submission, outer around a whole record.
type RetryConfig struct {
	Inner PolicyConfig `yaml:"inner"`
	Outer PolicyConfig `yaml:"outer"`
}

// CheckpointConfig selects and configures the progress store.
type CheckpointConfig struct {
	Backend string                 `yaml:"backend"` // file|redis|memory
	Path    string                 `yaml:"path"`
	Redis   checkpoint.RedisConfig `yaml:"redis"`
}

// ServerConfig holds the progress/metrics HTTP server settings. Port 0
// disables the server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// BrowserDriver converts the validated browser section into the driver's
// typed config.
func (c *AppConfig) BrowserDriver() browser.Config {
	return browser.Config{
		Kind:       c.Browser.Kind,
		DebugAddr:  c.Browser.DebugAddr,
		BaseURL:    c.Browser.BaseURL,
		MatchMode:  c.Run.MatchMode,
		NavTimeout: mustDuration(c.Browser.NavTimeout),
	}
}

// Policies returns the typed inner and outer retry policies.
func (c *AppConfig) Policies() (inner, outer retry.Policy) {
	inner = retry.Policy{
		MaxAttempts: c.Retry.Inner.MaxAttempts,
		BaseDelay:   mustDuration(c.Retry.Inner.BaseDelay),
	}
	outer = retry.Policy{
		MaxAttempts: c.Retry.Outer.MaxAttempts,
		BaseDelay:   mustDuration(c.Retry.Outer.BaseDelay),
	}
	return inner, outer
}

// ItemDelay returns the pause applied after each successful submission.
func (c *AppConfig) ItemDelay() time.Duration {
	return mustDuration(c.Run.PerItemDelay)
}

// ResumeEnabled reports whether completed records are skipped on restart.
// Defaults to true when the config leaves it unset.
func (c *AppConfig) ResumeEnabled() bool {
	if c.Run.Resume == nil {
		return true
	}
	return *c.Run.Resume
}

// mustDuration parses a duration already checked by Validate.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
