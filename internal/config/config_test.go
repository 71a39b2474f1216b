package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8082 || cfg.MatchThreshold != 0.7 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Addr() != "127.0.0.1:8082" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GPS_PORT", "9090")
	t.Setenv("GPS_LOG_LEVEL", "debug")
	t.Setenv("GPS_MATCH_THRESHOLD", "0.8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.LogLevel != "debug" || cfg.MatchThreshold != 0.8 {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("port: 7000\nlog_level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GPS_CONFIG", path)
	t.Setenv("GPS_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("file value lost: %+v", cfg)
	}
	if cfg.Port != 7001 {
		t.Errorf("env must win over file: %+v", cfg)
	}
}

func TestInvalidValues(t *testing.T) {
	t.Setenv("GPS_PORT", "-1")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative port")
	}

	t.Setenv("GPS_PORT", "8082")
	t.Setenv("GPS_MATCH_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Error("expected error for threshold out of range")
	}
}
