package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"asiread/internal/testsupport"
)

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("read complete", "component", "dataset", "frames", 20)
	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO dataset: read complete") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "frames=20") {
		t.Fatalf("attribute missing from console line: %q", line)
	}
}

func TestNewConsoleQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Warn("decode failed", "component", "decode", "reason", "bad header token")
	if !strings.Contains(buf.String(), `reason="bad header token"`) {
		t.Fatalf("spaced value not quoted: %q", buf.String())
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Debug("scheduling", "component", "sched", "workers", 4)
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["level"] != "debug" {
		t.Fatalf("level = %v, want lowercase debug", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatal("timestamp key not renamed to ts")
	}
	if record["msg"] != "scheduling" {
		t.Fatalf("msg = %v", record["msg"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("quiet please", "component", "dataset")
	if buf.Len() != 0 {
		t.Fatalf("info record leaked past warn level: %q", buf.String())
	}
	logger.Error("loud", "component", "dataset")
	if !strings.Contains(buf.String(), "ERROR dataset: loud") {
		t.Fatalf("error record missing: %q", buf.String())
	}
}

func TestWithAttrsCarryThrough(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batch := logger.With("batch", "a1b2c3d4")
	batch.Info("read complete", "component", "dataset")
	if !strings.Contains(buf.String(), "batch=a1b2c3d4") {
		t.Fatalf("inherited attribute missing: %q", buf.String())
	}
}

func TestConsoleDerivedHandlersShareLock(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parent, ok := logger.Handler().(*consoleHandler)
	if !ok {
		t.Fatalf("console logger handler is %T", logger.Handler())
	}
	child, ok := logger.With("component", "decode").Handler().(*consoleHandler)
	if !ok {
		t.Fatalf("derived handler is %T", logger.With("component", "decode").Handler())
	}
	grouped, ok := logger.WithGroup("job").Handler().(*consoleHandler)
	if !ok {
		t.Fatalf("grouped handler is %T", logger.WithGroup("job").Handler())
	}
	if parent.mu != child.mu || parent.mu != grouped.mu {
		t.Fatal("derived handlers do not share the parent's write lock")
	}
}

func TestNewFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "json"

	logger, err := NewFromConfig(cfg, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hello")
	if !json.Valid(buf.Bytes()) {
		t.Fatalf("config-driven logger ignored format: %q", buf.String())
	}

	if _, err := NewFromConfig(nil, &buf); err != nil {
		t.Fatalf("nil config must fall back to defaults: %v", err)
	}
}
