package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if cfg.QueryLimit != 20 {
		t.Errorf("QueryLimit = %d, want 20", cfg.QueryLimit)
	}
	if cfg.WindowLength != 5*time.Hour {
		t.Errorf("WindowLength = %v, want 5h", cfg.WindowLength)
	}
	if cfg.UsageRefreshInterval != 10*time.Second {
		t.Errorf("UsageRefreshInterval = %v, want 10s", cfg.UsageRefreshInterval)
	}
	if cfg.QueryTimeout != 60*time.Second {
		t.Errorf("QueryTimeout = %v, want 60s", cfg.QueryTimeout)
	}
	if cfg.SnapshotPath == "" || cfg.DatabasePath == "" || cfg.LogPath == "" {
		t.Error("state paths should have defaults")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STYLIST_API_URL", "http://api.example.com:9000")
	t.Setenv("USAGE_QUERY_LIMIT", "50")
	t.Setenv("USAGE_WINDOW", "2h")
	t.Setenv("USAGE_REFRESH_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIBaseURL != "http://api.example.com:9000" {
		t.Errorf("APIBaseURL = %q, want override", cfg.APIBaseURL)
	}
	if cfg.QueryLimit != 50 {
		t.Errorf("QueryLimit = %d, want 50", cfg.QueryLimit)
	}
	if cfg.WindowLength != 2*time.Hour {
		t.Errorf("WindowLength = %v, want 2h", cfg.WindowLength)
	}
	if cfg.UsageRefreshInterval != 30*time.Second {
		t.Errorf("UsageRefreshInterval = %v, want 30s", cfg.UsageRefreshInterval)
	}
}

func TestLoad_InvalidLimit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USAGE_QUERY_LIMIT", "-3")

	if _, err := Load(); err == nil {
		t.Error("Load should reject a non-positive query limit")
	}
}

func TestLoad_InvalidWindow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USAGE_WINDOW", "-1h")

	if _, err := Load(); err == nil {
		t.Error("Load should reject a non-positive window")
	}
}

func TestGetEnvDuration_BareSeconds(t *testing.T) {
	t.Setenv("TEST_DURATION", "45")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Errorf("getEnvDuration = %v, want 45s for a bare number", got)
	}
}

func TestGetEnvDuration_Invalid(t *testing.T) {
	t.Setenv("TEST_DURATION", "soon")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration = %v, want the default for garbage", got)
	}
}

func TestGetEnvInt_Invalid(t *testing.T) {
	t.Setenv("TEST_INT", "twenty")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want the default for garbage", got)
	}
}
