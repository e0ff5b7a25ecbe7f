package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configs")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestNewConfigManager(t *testing.T) {
	path := writeConfig(t, `
# comment
logfile = test.log
wallet_request_timeout = 30s
ledger_persist = off
log_max_backups = 7
wallet_known_chains = 44787, 42220 ,
empty =
no separator line
`)

	cm, err := NewConfigManager(path)
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}

	if got := cm.GetConfigWithDefault("logfile", ""); got != "test.log" {
		t.Errorf("logfile = %q", got)
	}
	if got := cm.GetConfigDuration("wallet_request_timeout", 0); got != 30*time.Second {
		t.Errorf("wallet_request_timeout = %v", got)
	}
	if cm.GetConfigBool("ledger_persist", true) {
		t.Error("ledger_persist should be false")
	}
	if got := cm.GetConfigInt("log_max_backups", 5, 0, 100); got != 7 {
		t.Errorf("log_max_backups = %d", got)
	}
	if got := cm.GetConfigSlice("wallet_known_chains", nil); len(got) != 2 || got[0] != "44787" || got[1] != "42220" {
		t.Errorf("wallet_known_chains = %v", got)
	}
	if got := cm.GetConfigWithDefault("empty", "fallback"); got != "fallback" {
		t.Errorf("empty value = %q, want fallback", got)
	}
	if got, _ := cm.GetConfig("file"); got != path {
		t.Errorf("file = %q, want %q", got, path)
	}
}

func TestConfigManagerInvalidValuesFallBack(t *testing.T) {
	cm := NewConfigManagerFromValues(Config{
		"confirmation_timeout": "soon",
		"ledger_persist":       "maybe",
		"log_max_size_mb":      "999999",
		"log_max_backups":      "x",
	})

	if got := cm.GetConfigDuration("confirmation_timeout", time.Minute); got != time.Minute {
		t.Errorf("duration = %v, want default", got)
	}
	if !cm.GetConfigBool("ledger_persist", true) {
		t.Error("bool should fall back to default")
	}
	if got := cm.GetConfigInt64("log_max_size_mb", 20, 0, 10240); got != 20 {
		t.Errorf("out of range int64 = %d, want 20", got)
	}
	if got := cm.GetConfigInt("log_max_backups", 5, 0, 100); got != 5 {
		t.Errorf("invalid int = %d, want 5", got)
	}
}

func TestNewConfigManagerFromValuesUsesDefaults(t *testing.T) {
	cm := NewConfigManagerFromValues(Config{"default_currency": "ceur"})

	if got := cm.GetConfigWithDefault("default_currency", ""); got != "ceur" {
		t.Errorf("default_currency = %q", got)
	}
	if got := cm.GetConfigWithDefault("database_file", ""); got != "farepay.db" {
		t.Errorf("database_file = %q, want embedded default", got)
	}
	if got := cm.GetConfigDuration("confirmation_poll_interval", 0); got != 2*time.Second {
		t.Errorf("confirmation_poll_interval = %v", got)
	}
	if err := cm.ReloadConfig(); err != nil {
		t.Errorf("ReloadConfig on in-memory config: %v", err)
	}
}

func TestSetConfigAndReload(t *testing.T) {
	path := writeConfig(t, "log_level = info\n")
	cm, err := NewConfigManager(path)
	if err != nil {
		t.Fatal(err)
	}

	cm.SetConfig("confirmation_timeout", 90*time.Second)
	cm.SetConfig("wallet_use_keyring", true)
	if got := cm.GetConfigDuration("confirmation_timeout", 0); got != 90*time.Second {
		t.Errorf("confirmation_timeout = %v", got)
	}
	if !cm.GetConfigBool("wallet_use_keyring", false) {
		t.Error("wallet_use_keyring should be true")
	}

	if err := os.WriteFile(path, []byte("log_level = debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cm.ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	if got := cm.GetConfigWithDefault("log_level", ""); got != "debug" {
		t.Errorf("log_level after reload = %q", got)
	}
	if _, ok := cm.GetConfig("wallet_use_keyring"); ok {
		t.Error("runtime values should be dropped on reload")
	}
}

func TestNewConfigManagerMissingFile(t *testing.T) {
	if _, err := NewConfigManager(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestNewConfigManagerSeedsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FAREPAY_HOME", home)

	cm, err := NewConfigManager("")
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "configs")); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if got := cm.GetConfigWithDefault("default_currency", ""); got != "cusd" {
		t.Errorf("default_currency = %q, want cusd", got)
	}
	if got := GetAppPaths("").GetDataPath("farepay.db"); got != filepath.Join(home, "farepay.db") {
		t.Errorf("data path = %q", got)
	}
}
