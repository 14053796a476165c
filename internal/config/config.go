// Package config loads service settings from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tinoosan/bukubesar/internal/accountno"
	"github.com/tinoosan/bukubesar/internal/service/txn"
)

// Config is the full set of runtime settings.
type Config struct {
	HTTPAddr string
	// DatabaseURL selects the postgres store; empty means the in-memory store.
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	Auth        AuthConfig
	// Location defines business-day boundaries.
	Location         *time.Location
	NetIncomeAccount string
	Retry            txn.Policy
	DevSeed          bool
}

// AuthConfig configures bearer token checks. An empty Secret disables them.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Enabled reports whether requests must carry a signed token.
func (a AuthConfig) Enabled() bool { return a.Secret != "" }

// Load reads the environment. An explicit envPath must exist; otherwise ./.env is
// loaded when present. Variables already set in the process win over the file.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	def := txn.DefaultPolicy()
	attempts, err := parseIntEnv("TX_MAX_ATTEMPTS", def.MaxAttempts)
	if err != nil {
		return nil, err
	}
	base, err := parseDurationEnv("TX_BASE_DELAY", def.BaseDelay)
	if err != nil {
		return nil, err
	}
	ceiling, err := parseDurationEnv("TX_MAX_DELAY", def.MaxDelay)
	if err != nil {
		return nil, err
	}
	tz := getEnvOrDefault("LEDGER_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE: %w", err)
	}

	cfg := &Config{
		HTTPAddr:    getEnvOrDefault("HTTP_ADDR", ":8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		LogFormat:   strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
		Auth: AuthConfig{
			Secret:   os.Getenv("JWT_HS256_SECRET"),
			Issuer:   strings.TrimSpace(os.Getenv("JWT_ISSUER")),
			Audience: strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
		},
		Location:         loc,
		NetIncomeAccount: accountno.Normalize(getEnvOrDefault("NET_INCOME_ACCOUNT", "3.3.01")),
		Retry:            txn.Policy{MaxAttempts: attempts, BaseDelay: base, MaxDelay: ceiling},
		DevSeed:          parseBool(os.Getenv("DEV_SEED")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var problems []error
	if !accountno.IsValid(c.NetIncomeAccount) {
		problems = append(problems, fmt.Errorf("NET_INCOME_ACCOUNT %q is not a valid account number", c.NetIncomeAccount))
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, errors.New("TX_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		problems = append(problems, errors.New("TX_BASE_DELAY and TX_MAX_DELAY must not be negative"))
	}
	if c.Retry.MaxDelay > 0 && c.Retry.BaseDelay > c.Retry.MaxDelay {
		problems = append(problems, errors.New("TX_BASE_DELAY exceeds TX_MAX_DELAY"))
	}
	return errors.Join(problems...)
}

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
