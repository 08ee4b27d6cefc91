package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every variable LoadConfig reads, so tests control
// the whole input surface.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"INEGI_INDICADORES_TOKEN", "INEGI_DENUE_TOKEN", "INEGI_TOKEN",
		"INEGIMCP_INDICATORS_BASE_URL", "INEGIMCP_DENUE_BASE_URL",
		"INEGIMCP_LANGUAGE", "INEGIMCP_TIMEOUT_SECONDS", "INEGIMCP_HEALTH_ENABLED",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Indicators.BaseURL != DefaultIndicatorsBaseURL {
		t.Errorf("indicators base = %q", cfg.Indicators.BaseURL)
	}
	if cfg.Denue.BaseURL != DefaultDenueBaseURL {
		t.Errorf("denue base = %q", cfg.Denue.BaseURL)
	}
	if cfg.Indicators.Token != "" || cfg.Denue.Token != "" {
		t.Errorf("tokens should default empty")
	}
	if cfg.HTTP.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("timeout = %d", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.Denue.MaxPageSize != DefaultMaxPageSize {
		t.Errorf("maxPageSize = %d", cfg.Denue.MaxPageSize)
	}
	if cfg.Denue.MaxRadiusMeters != DefaultMaxRadiusMeters {
		t.Errorf("maxRadiusMeters = %d", cfg.Denue.MaxRadiusMeters)
	}
}

func TestLoadConfig_EnvTokens(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv("INEGI_INDICADORES_TOKEN", "tok-bise")
	t.Setenv("INEGI_DENUE_TOKEN", "tok-denue")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Indicators.Token != "tok-bise" {
		t.Errorf("indicators token = %q", cfg.Indicators.Token)
	}
	if cfg.Denue.Token != "tok-denue" {
		t.Errorf("denue token = %q", cfg.Denue.Token)
	}
}

func TestLoadConfig_LegacyToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv("INEGI_TOKEN", "tok-legacy")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Denue.Token != "tok-legacy" {
		t.Errorf("legacy token not applied: %q", cfg.Denue.Token)
	}

	// The dedicated variable wins over the legacy one.
	t.Setenv("INEGI_DENUE_TOKEN", "tok-denue")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Denue.Token != "tok-denue" {
		t.Errorf("denue token = %q", cfg.Denue.Token)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	dir := filepath.Join(home, ".inegimcp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fileCfg := map[string]any{
		"indicators": map[string]any{"token": "tok-file", "language": "en"},
		"http":       map[string]any{"timeoutSeconds": 5},
	}
	data, _ := json.Marshal(fileCfg)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Indicators.Token != "tok-file" {
		t.Errorf("file token not applied: %q", cfg.Indicators.Token)
	}
	if cfg.Indicators.Language != "en" {
		t.Errorf("file language not applied: %q", cfg.Indicators.Language)
	}
	if cfg.HTTP.TimeoutSeconds != 5 {
		t.Errorf("file timeout not applied: %d", cfg.HTTP.TimeoutSeconds)
	}

	// Env wins over file.
	t.Setenv("INEGI_INDICADORES_TOKEN", "tok-env")
	t.Setenv("INEGIMCP_TIMEOUT_SECONDS", "7")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Indicators.Token != "tok-env" {
		t.Errorf("env token did not win: %q", cfg.Indicators.Token)
	}
	if cfg.HTTP.TimeoutSeconds != 7 {
		t.Errorf("env timeout did not win: %d", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	dir := filepath.Join(home, ".inegimcp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for invalid config file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.Denue.Token = "tok-saved"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Denue.Token != "tok-saved" {
		t.Errorf("round trip lost token: %q", loaded.Denue.Token)
	}
}
