// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LDAPConfig holds directory connection configuration.
type LDAPConfig struct {
	URL          string        // ldap:// or ldaps:// URL
	BaseDN       string        // search base for identity resolution
	BindDN       string        // empty for anonymous bind
	BindPassword string        // never logged
	Timeout      time.Duration // per-request time limit (default: 30s)
}

// Validate checks that the directory configuration is usable.
func (l *LDAPConfig) Validate() error {
	if l.URL == "" {
		return fmt.Errorf("LDAP_URL must be set")
	}
	if l.BaseDN == "" {
		return fmt.Errorf("LDAP_BASE_DN must be set")
	}
	return nil
}

// Config holds configuration for the CLI and the HTTP server.
type Config struct {
	LDAP LDAPConfig

	DBPath     string // path to the SQLite audit history file
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Traversal defaults; per-invocation flags and query params override.
	InactiveDays int // inactivity threshold in days (default 90)
	MaxDepth     int // 0 = unlimited
	MaxNodes     int // 0 = unlimited

	// APIKey protects the HTTP API when set; requests must present it in
	// the X-API-Key header.
	APIKey string

	// ScheduleFile is the path to the recurring-audit YAML definition;
	// empty disables the scheduler.
	ScheduleFile string

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:       os.Getenv("ADLENS_DB_PATH"),
		ListenAddr:   os.Getenv("ADLENS_LISTEN_ADDR"),
		LogLevel:     os.Getenv("ADLENS_LOG_LEVEL"),
		Env:          os.Getenv("ENV"),
		APIKey:       os.Getenv("ADLENS_API_KEY"),
		ScheduleFile: os.Getenv("ADLENS_SCHEDULE_FILE"),
		LDAP: LDAPConfig{
			URL:          os.Getenv("LDAP_URL"),
			BaseDN:       os.Getenv("LDAP_BASE_DN"),
			BindDN:       os.Getenv("LDAP_BIND_DN"),
			BindPassword: os.Getenv("LDAP_BIND_PASSWORD"),
		},
	}

	if v := os.Getenv("LDAP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LDAP.Timeout = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid LDAP_TIMEOUT %q", v))
		}
	}

	cfg.InactiveDays = parseIntEnvDefault("ADLENS_INACTIVE_DAYS", 90, &cfg.Warnings)
	cfg.MaxDepth = parseIntEnvDefault("ADLENS_MAX_DEPTH", 0, &cfg.Warnings)
	cfg.MaxNodes = parseIntEnvDefault("ADLENS_MAX_NODES", 0, &cfg.Warnings)

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	cfg.RateLimitBurst = parseIntEnvDefault("RATE_LIMIT_BURST", 0, &cfg.Warnings)

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "adlens.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LDAP.Timeout == 0 {
		cfg.LDAP.Timeout = 30 * time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.APIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "ADLENS_API_KEY not set: the HTTP API is unauthenticated")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ADLENS_API_KEY must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseIntEnvDefault(key string, defaultVal int, warnings *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*warnings = append(*warnings, fmt.Sprintf("ignoring invalid %s %q", key, v))
		return defaultVal
	}
	return n
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
