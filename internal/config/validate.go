package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Read.Workers < 1 {
		return errors.New("read.workers must be at least 1")
	}
	if c.Read.MergeWorkers < 0 {
		return errors.New("read.merge_workers must not be negative")
	}
	if strings.TrimSpace(c.Read.TempDir) == "" {
		return errors.New("read.temp_dir must be set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
