package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"asiread/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Read contains decode and assembly tuning.
type Read struct {
	// Workers bounds the per-file decode pool.
	Workers int `toml:"workers"`
	// MergeWorkers bounds the assembly copy pool. 0 follows workers.
	MergeWorkers int `toml:"merge_workers"`
	// TempDir is scratch space for bundle extraction.
	TempDir string `toml:"temp_dir"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all asiread settings.
type Config struct {
	Read    Read    `toml:"read"`
	Logging Logging `toml:"logging"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Read: Read{
			Workers: 1,
			TempDir: filepath.Join(os.TempDir(), "asiread"),
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return fileutil.ExpandPath("~/.config/asiread/config.toml")
}

// Load locates, parses, and validates a configuration file, then applies
// environment overrides. It returns the resolved path and whether a file
// was actually found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// applyEnv layers ASIREAD_* environment variables over the file values. A
// .env in the working directory is sourced first when present.
func (c *Config) applyEnv() error {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	if v := os.Getenv("ASIREAD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ASIREAD_WORKERS: %w", err)
		}
		c.Read.Workers = n
	}
	if v := os.Getenv("ASIREAD_MERGE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ASIREAD_MERGE_WORKERS: %w", err)
		}
		c.Read.MergeWorkers = n
	}
	if v := os.Getenv("ASIREAD_TEMP_DIR"); v != "" {
		c.Read.TempDir = v
	}
	if v := os.Getenv("ASIREAD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ASIREAD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Read.TempDir, err = fileutil.ExpandPath(c.Read.TempDir); err != nil {
		return fmt.Errorf("read.temp_dir: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := fileutil.ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, refusing
// to overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
