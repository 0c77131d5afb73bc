package testsupport

import (
	"path/filepath"
	"testing"

	"freighter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Retry delays are shrunk so backoff-driven tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Engine.BaseRetryDelayMs = 5
	cfg.Engine.MaxRetryDelayMs = 20
	cfg.S3.Bucket = "test-bucket"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithMaxConcurrent overrides the engine-wide concurrency bound.
func WithMaxConcurrent(n int) ConfigOption {
	return func(c *config.Config) {
		c.Engine.MaxConcurrent = n
	}
}

// WithMaxRetries overrides the per-task retry budget.
func WithMaxRetries(n int) ConfigOption {
	return func(c *config.Config) {
		c.Engine.MaxRetries = n
	}
}

// WithOutageThreshold overrides the consecutive-failure halt threshold.
func WithOutageThreshold(n int) ConfigOption {
	return func(c *config.Config) {
		c.Engine.OutageThreshold = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
