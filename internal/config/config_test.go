package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "database:\n  url: postgres://localhost/perks\n")
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Redemption.ProofTTL != 30*time.Second || cfg.Redemption.VoidWindow != 2*time.Hour {
		t.Fatalf("unexpected redemption defaults: %+v", cfg.Redemption)
	}
	if cfg.Redemption.Timezone != "UTC" {
		t.Fatalf("expected default timezone UTC, got %q", cfg.Redemption.Timezone)
	}
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "server:\n  port: 9000\n")
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatalf("expected error for missing database.url")
	}
}

func TestLoadConfig_RejectsOffsetTimezone(t *testing.T) {
	t.Parallel()

	// The quota index buckets days in UTC; an offset zone must be refused at
	// startup rather than silently splitting the quota day.
	path := writeConfig(t, "database:\n  url: postgres://localhost/perks\nredemption:\n  timezone: America/New_York\n")
	_, err := LoadConfig(path, false)
	if err == nil || !strings.Contains(err.Error(), "timezone") {
		t.Fatalf("expected timezone mismatch error, got %v", err)
	}
}

func TestLoadConfig_AcceptsZeroOffsetZone(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "database:\n  url: postgres://localhost/perks\nredemption:\n  timezone: Etc/UTC\n")
	if _, err := LoadConfig(path, false); err != nil {
		t.Fatalf("Etc/UTC should be accepted: %v", err)
	}
}
