package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.SessionTTL.Std() != 7*24*time.Hour {
		t.Errorf("Auth.SessionTTL = %v", cfg.Auth.SessionTTL)
	}
	if cfg.Timer.TickInterval.Std() != time.Second {
		t.Errorf("Timer.TickInterval = %v", cfg.Timer.TickInterval)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
	if strings.HasPrefix(cfg.Storage.DataDir, "~") {
		t.Errorf("Storage.DataDir not expanded: %q", cfg.Storage.DataDir)
	}
	if cfg.CLI.UserEmail != "local@focusflow.local" {
		t.Errorf("CLI.UserEmail = %q", cfg.CLI.UserEmail)
	}
}

func TestLoadFrom_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = "0.0.0.0:9000"
shutdown_timeout = "3s"

[auth]
session_ttl = "12h"
bcrypt_cost = 11

[storage]
driver = "memory"
data_dir = "/var/lib/focusflow"

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout.Std() != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Auth.SessionTTL.Std() != 12*time.Hour {
		t.Errorf("Auth.SessionTTL = %v", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.BcryptCost != 11 {
		t.Errorf("Auth.BcryptCost = %d", cfg.Auth.BcryptCost)
	}
	if cfg.Storage.Driver != "memory" || cfg.Storage.DataDir != "/var/lib/focusflow" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	// Unset keys keep their defaults.
	if cfg.Auth.CookieName != "focusflow_session" {
		t.Errorf("Auth.CookieName = %q", cfg.Auth.CookieName)
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("FOCUSFLOW_SERVER_ADDR", ":7777")
	t.Setenv("FOCUSFLOW_AUTH_SECRET", "from-env")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("Server.Addr = %q, want :7777", cfg.Server.Addr)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Errorf("Auth.Secret = %q", cfg.Auth.Secret)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Timer.DefaultPreset = "30min"
	cfg.Timer.TickInterval = Duration(500 * time.Millisecond)
	cfg.Storage.DataDir = t.TempDir()

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got.Timer.DefaultPreset != "30min" {
		t.Errorf("Timer.DefaultPreset = %q", got.Timer.DefaultPreset)
	}
	if got.Timer.TickInterval.Std() != 500*time.Millisecond {
		t.Errorf("Timer.TickInterval = %v", got.Timer.TickInterval)
	}
	if GetDBPath(got) != filepath.Join(cfg.Storage.DataDir, "focusflow.db") {
		t.Errorf("GetDBPath() = %q", GetDBPath(got))
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatal(err)
	}
	if d.Std() != 90*time.Minute {
		t.Errorf("got %v", d)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON warn record, got %s", out)
	}

	// A buffer is not a terminal, so auto picks JSON.
	buf.Reset()
	logger, err = LogConfig{Format: "auto"}.NewLogger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("auto format on non-terminal should be JSON, got %s", buf.String())
	}

	if _, err := (LogConfig{Level: "loud"}).NewLogger(&buf); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := (LogConfig{Format: "xml"}).NewLogger(&buf); err == nil {
		t.Error("expected error for bad format")
	}
	if lvl, _ := ParseLevel("DEBUG"); lvl != slog.LevelDebug {
		t.Errorf("ParseLevel(DEBUG) = %v", lvl)
	}
}
