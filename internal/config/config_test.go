package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "termbot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadLenient(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Auth.OTPTimeout != 300 {
		t.Errorf("OTPTimeout = %d, want 300", cfg.Auth.OTPTimeout)
	}
	if cfg.Database.Path != "termbot.sqlite" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if got := cfg.KeyDelay(); got != 5*time.Millisecond {
		t.Errorf("KeyDelay = %v, want 5ms", got)
	}
	if got := cfg.RedrawWait(); got != 2*time.Second {
		t.Errorf("RedrawWait = %v, want 2s", got)
	}
}

func TestFileOverridesAndClamp(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
auth:
  otp_timeout: 5
automation:
  key_delay_ms: -1
  redraw_wait_ms: 500
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Token = %q", cfg.Telegram.Token)
	}
	if cfg.Auth.OTPTimeout != 30 {
		t.Errorf("OTPTimeout = %d, want clamped 30", cfg.Auth.OTPTimeout)
	}
	if cfg.Automation.KeyDelayMs != 0 {
		t.Errorf("KeyDelayMs = %d, want clamped 0", cfg.Automation.KeyDelayMs)
	}
	if cfg.Automation.RedrawWaitMs != 500 {
		t.Errorf("RedrawWaitMs = %d, want 500", cfg.Automation.RedrawWaitMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("TERMBOT_DB", "/tmp/env.sqlite")

	path := writeConfig(t, `
telegram:
  token: "file-token"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("Token = %q, env should win over file", cfg.Telegram.Token)
	}
	if cfg.Database.Path != "/tmp/env.sqlite" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load without token should fail validation")
	}
	if _, err := LoadLenient(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("LoadLenient should tolerate missing token: %v", err)
	}
}
