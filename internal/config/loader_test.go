package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"CRMS_HTTP_PORT",
			"CRMS_SQLITE_DSN",
			"CRMS_SESSION_TTL",
			"CRMS_STATS_TTL",
			"CRMS_BOOTSTRAP_ADMIN_EMAIL",
			"CRMS_BOOTSTRAP_ADMIN_PASSWORD",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:crms.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Fatalf("unexpected default session TTL: %v", cfg.SessionTTL)
		}
		if cfg.StatsTTL != time.Minute {
			t.Fatalf("unexpected default stats TTL: %v", cfg.StatsTTL)
		}
		if cfg.BootstrapAdminEmail != "" || cfg.BootstrapAdminPassword != "" {
			t.Fatalf("expected no bootstrap admin by default, got %q", cfg.BootstrapAdminEmail)
		}
	})

	t.Run("parses explicit overrides", func(t *testing.T) {
		t.Setenv("CRMS_HTTP_PORT", "9100")
		t.Setenv("CRMS_SQLITE_DSN", "file:/tmp/bookings.db?_foreign_keys=on")
		t.Setenv("CRMS_SESSION_TTL", "8h")
		t.Setenv("CRMS_STATS_TTL", "30s")
		t.Setenv("CRMS_BOOTSTRAP_ADMIN_EMAIL", "Admin@Campus.edu")
		t.Setenv("CRMS_BOOTSTRAP_ADMIN_PASSWORD", "bootstrap-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9100 {
			t.Fatalf("expected port 9100, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/bookings.db?_foreign_keys=on" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 8*time.Hour {
			t.Fatalf("unexpected session TTL: %v", cfg.SessionTTL)
		}
		if cfg.StatsTTL != 30*time.Second {
			t.Fatalf("unexpected stats TTL: %v", cfg.StatsTTL)
		}
		if cfg.BootstrapAdminEmail != "admin@campus.edu" {
			t.Fatalf("expected lowercased bootstrap email, got %q", cfg.BootstrapAdminEmail)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value string
		}{
			{name: "non-numeric port", key: "CRMS_HTTP_PORT", value: "eighty"},
			{name: "negative port", key: "CRMS_HTTP_PORT", value: "-1"},
			{name: "unparseable session TTL", key: "CRMS_SESSION_TTL", value: "whenever"},
			{name: "zero stats TTL", key: "CRMS_STATS_TTL", value: "0s"},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				t.Setenv(tc.key, tc.value)

				if _, err := Load(); err == nil {
					t.Fatalf("expected error for %s=%q", tc.key, tc.value)
				}
			})
		}
	})

	t.Run("rejects a bootstrap admin email without a password", func(t *testing.T) {
		t.Setenv("CRMS_BOOTSTRAP_ADMIN_EMAIL", "admin@campus.edu")
		t.Setenv("CRMS_BOOTSTRAP_ADMIN_PASSWORD", "")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for a lone bootstrap email")
		}
	})
}
