package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"freighter/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Engine.MaxConcurrent < 1 {
		t.Fatalf("default max_concurrent = %d", cfg.Engine.MaxConcurrent)
	}
	if len(cfg.Rules) == 0 {
		t.Fatal("default config has no classification rules")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("exists = true for missing file %s", path)
	}
	defaults := config.Default()
	if cfg.Engine.MaxRetries != defaults.Engine.MaxRetries {
		t.Fatalf("max_retries = %d, want default %d", cfg.Engine.MaxRetries, defaults.Engine.MaxRetries)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[engine]
max_concurrent = 7
max_retries = 1

[s3]
bucket = "uploads"
key_prefix = "/incoming/"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = (%s, %v)", resolved, exists)
	}
	if cfg.Engine.MaxConcurrent != 7 || cfg.Engine.MaxRetries != 1 {
		t.Fatalf("engine overrides not applied: %+v", cfg.Engine)
	}
	if cfg.S3.KeyPrefix != "incoming" {
		t.Fatalf("key_prefix not normalized: %q", cfg.S3.KeyPrefix)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero concurrency",
			content: "[engine]\nmax_concurrent = 0\n",
			wantErr: "max_concurrent",
		},
		{
			name:    "multiplier below one",
			content: "[engine]\nretry_delay_multiplier = 0.5\n",
			wantErr: "retry_delay_multiplier",
		},
		{
			name:    "duplicate rule category",
			content: "[[rules]]\ncategory = \"doc\"\npatterns = [\".pdf\"]\n[[rules]]\ncategory = \"doc\"\npatterns = [\".txt\"]\n",
			wantErr: "more than once",
		},
		{
			name:    "rule without patterns",
			content: "[[rules]]\ncategory = \"doc\"\npatterns = []\n",
			wantErr: "at least one pattern",
		},
		{
			name:    "bad log level",
			content: "[logging]\nlevel = \"verbose\"\n",
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"xml\"\n",
			wantErr: "logging.format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Load error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestWriteSampleThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite existing sample")
	}

	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("Load sample = (exists=%v, err=%v)", exists, err)
	}
}

func TestEnsureDirectoriesAndJournalPath(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("directory %s not created: %v", dir, err)
		}
	}
	if got := cfg.JournalPath(); got != filepath.Join(cfg.Paths.DataDir, "uploads.db") {
		t.Fatalf("JournalPath = %s", got)
	}
}
