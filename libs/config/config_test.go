package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(old)
	})
}

func TestLoadWithoutConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with no config file: %v", err)
	}
	if cfg.ServiceName != "videoplatform-api" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.HTTP.Port != 8000 {
		t.Fatalf("unexpected port %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected read timeout %v", cfg.HTTP.ReadTimeout)
	}
}

func TestLoadEnvOnly(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VTB_ENV", "test")
	t.Setenv("VTB_LOG_LEVEL", "debug")
	t.Setenv("VTB_HTTP_PORT", "9001")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load from env alone: %v", err)
	}
	if cfg.Env != "test" || cfg.LogLevel != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.HTTP.Port != 9001 {
		t.Fatalf("unexpected port %d", cfg.HTTP.Port)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := "service_name: custom-api\nhttp:\n  port: 9100\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "custom-api" || cfg.HTTP.Port != 9100 {
		t.Fatalf("config file not applied: %+v", cfg)
	}
	// Unset keys still fall back to defaults.
	if cfg.MetricsPath != "/metrics" {
		t.Fatalf("unexpected metrics path %q", cfg.MetricsPath)
	}
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	chdir(t, t.TempDir())

	if _, err := Load("missing.yaml"); err == nil {
		t.Fatal("expected error for an explicitly named missing file")
	}
}
