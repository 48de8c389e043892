package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendURL != DefaultBackendURL || cfg.RunTimeout != DefaultRunTimeout {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Logger.Level != DefaultLogLevel || cfg.Logger.OutputPath != "stderr" {
		t.Fatalf("unexpected logger defaults: %+v", cfg.Logger)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	data := []byte("backendURL: http://grader:9000\nrunTimeout: 45s\nlogger:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendURL != "http://grader:9000" {
		t.Fatalf("backendURL = %q", cfg.BackendURL)
	}
	if cfg.RunTimeout != 45*time.Second {
		t.Fatalf("runTimeout = %s", cfg.RunTimeout)
	}
	if cfg.Logger.Level != "debug" || cfg.Timeout != DefaultTimeout {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("backendURL: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
