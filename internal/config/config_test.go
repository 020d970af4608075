package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Read.Workers != 1 {
		t.Fatalf("default workers = %d, want 1", cfg.Read.Workers)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("default logging = %+v", cfg.Logging)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("reported a file that does not exist")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Read.Workers != Default().Read.Workers {
		t.Fatalf("missing file must yield defaults, got %+v", cfg.Read)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[read]
workers = 6
merge_workers = 2
temp_dir = "/tmp/asiread-test"

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("file not detected")
	}
	if cfg.Read.Workers != 6 || cfg.Read.MergeWorkers != 2 {
		t.Fatalf("read settings = %+v", cfg.Read)
	}
	if cfg.Read.TempDir != "/tmp/asiread-test" {
		t.Fatalf("temp_dir = %q", cfg.Read.TempDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging settings = %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ASIREAD_WORKERS", "8")
	t.Setenv("ASIREAD_LOG_FORMAT", "json")

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Read.Workers != 8 {
		t.Fatalf("workers = %d, want env override 8", cfg.Read.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q, want env override", cfg.Logging.Format)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("ASIREAD_WORKERS", "lots")
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for non-numeric ASIREAD_WORKERS")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero workers", func(c *Config) { c.Read.Workers = 0 }, "read.workers"},
		{"negative merge workers", func(c *Config) { c.Read.MergeWorkers = -1 }, "read.merge_workers"},
		{"empty temp dir", func(c *Config) { c.Read.TempDir = " " }, "read.temp_dir"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample must load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("sample file not found after write")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample must validate: %v", err)
	}

	if err := WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite an existing file")
	}
}
