package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort               int
	SQLiteDSN              string
	SessionTTL             time.Duration
	StatsTTL               time.Duration
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// Load parses configuration values from the current process environment.
//
// A `.env` file in the working directory is merged into the environment
// first when present; real environment variables take precedence. The
// loader applies defaults for optional fields and reports every missing
// or malformed variable in a single error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:crms.db?_foreign_keys=on",
		SessionTTL: 24 * time.Hour,
		StatsTTL:   time.Minute,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CRMS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CRMS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CRMS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CRMS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CRMS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CRMS_STATS_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CRMS_STATS_TTL")
		} else {
			cfg.StatsTTL = ttl
		}
	}

	cfg.BootstrapAdminEmail = strings.TrimSpace(strings.ToLower(os.Getenv("CRMS_BOOTSTRAP_ADMIN_EMAIL")))
	cfg.BootstrapAdminPassword = os.Getenv("CRMS_BOOTSTRAP_ADMIN_PASSWORD")

	// The bootstrap admin is opt-in, but a lone email or password is a
	// deployment mistake rather than an opt-out.
	if (cfg.BootstrapAdminEmail == "") != (cfg.BootstrapAdminPassword == "") {
		invalid = append(invalid, "CRMS_BOOTSTRAP_ADMIN_EMAIL, CRMS_BOOTSTRAP_ADMIN_PASSWORD")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
