package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"

	"asiread/internal/config"
	"asiread/internal/logging"
)

// commandContext lazily loads configuration and builds the logger shared
// by all commands. Every invocation carries a fresh batch ID so log lines
// from concurrent runs stay attributable.
type commandContext struct {
	configFlag *string

	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	batchID    string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, batchID: uuid.NewString()}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolved, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.configPath = resolved
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	c.logger = logger.With("batch", shortID(c.batchID))
	return c.logger, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
