package testsupport

import (
	"path/filepath"
	"testing"

	"asiread/internal/config"
)

// NewConfig produces a config seeded with a unique temp scratch dir per
// test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Read.TempDir = filepath.Join(t.TempDir(), "scratch")
	return &cfg
}
