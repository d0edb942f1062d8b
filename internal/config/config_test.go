package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSubstituteEnvVarsReplacesKnownVar(t *testing.T) {
	os.Setenv("BINLOGSYNC_TEST_DSN", "root:pw@tcp(db:3306)/app")
	defer os.Unsetenv("BINLOGSYNC_TEST_DSN")

	got := SubstituteEnvVars("dsn: ${BINLOGSYNC_TEST_DSN}")
	want := "dsn: root:pw@tcp(db:3306)/app"
	if got != want {
		t.Errorf("SubstituteEnvVars() = %q, want %q", got, want)
	}
}

func TestSubstituteEnvVarsFallsBackToDefault(t *testing.T) {
	os.Unsetenv("BINLOGSYNC_TEST_MISSING")

	got := SubstituteEnvVars("port: ${BINLOGSYNC_TEST_MISSING:-8080}")
	if got != "port: 8080" {
		t.Errorf("SubstituteEnvVars() = %q, want default substituted", got)
	}
}

func TestSubstituteEnvVarsLeavesUnsetNoDefaultUnchanged(t *testing.T) {
	os.Unsetenv("BINLOGSYNC_TEST_MISSING_NO_DEFAULT")

	input := "token: ${BINLOGSYNC_TEST_MISSING_NO_DEFAULT}"
	got := SubstituteEnvVars(input)
	if got != input {
		t.Errorf("SubstituteEnvVars() = %q, want input unchanged: %q", got, input)
	}
}

func TestLoadConfigRoundTripsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	os.Setenv("BINLOGSYNC_TEST_PORT", "9090")
	defer os.Unsetenv("BINLOGSYNC_TEST_PORT")

	yamlContent := `
mysql:
  dsn: "root:pw@tcp(127.0.0.1:3306)/app"
  max_open: 10
http:
  port: ${BINLOGSYNC_TEST_PORT}
log_level: "info"
log_format: "json"
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MySQL.DSN != "root:pw@tcp(127.0.0.1:3306)/app" {
		t.Errorf("cfg.MySQL.DSN = %q", cfg.MySQL.DSN)
	}
	if cfg.MySQL.MaxOpen != 10 {
		t.Errorf("cfg.MySQL.MaxOpen = %d, want 10", cfg.MySQL.MaxOpen)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("cfg.HTTP.Port = %d, want 9090 (substituted)", cfg.HTTP.Port)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("cfg.LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() on missing file: error = nil, want non-nil")
	}
}

func TestSaveConfigThenLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.yaml")

	cfg := &Config{
		MySQL:     MySQLConfig{DSN: "a:b@tcp(h:3306)/d", MaxOpen: 5},
		LogLevel:  "debug",
		LogFormat: "console",
	}
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() after SaveConfig() error = %v", err)
	}
	if loaded.MySQL.DSN != cfg.MySQL.DSN || loaded.LogLevel != cfg.LogLevel {
		t.Errorf("round-tripped config = %+v, want matching %+v", loaded, cfg)
	}
}
