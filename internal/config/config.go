package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	LogDir       string
	Debug        bool

	JWTSecret string
	TokenTTL  time.Duration

	// AdminEmail/AdminPassword bootstrap the first administrator when no users exist.
	AdminEmail    string
	AdminPassword string

	Audit      AuditConfig
	Events     EventsConfig
	Moderation ModerationConfig
	Cache      CacheConfig
	Gate       GateConfig
}

// AuditConfig controls retention of the audit trail.
type AuditConfig struct {
	Retention time.Duration
	// PurgeSchedule is a cron expression; empty disables the scheduled purge.
	PurgeSchedule string
}

// EventsConfig sizes the in-process event bus.
type EventsConfig struct {
	QueueSize int
}

// ModerationConfig bounds batch operations.
type ModerationConfig struct {
	BatchLimit int
}

// CacheConfig configures the optional Redis cache for dashboard aggregates.
type CacheConfig struct {
	RedisURL string
	StatsTTL time.Duration
}

// GateConfig tunes the submission content gate.
type GateConfig struct {
	BlockedTerms []string
	MaxLinks     int
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:   getEnv("PLACIFY_ENV", "development"),
		HTTPPort:      getEnv("PLACIFY_HTTP_PORT", "8080"),
		DatabasePath:  getEnv("PLACIFY_DB_PATH", filepath.Join("data", "placify.db")),
		LogDir:        getEnv("PLACIFY_LOG_DIR", filepath.Join("data", "logs")),
		JWTSecret:     getEnv("PLACIFY_JWT_SECRET", "change-me-in-production"),
		AdminEmail:    getEnv("PLACIFY_ADMIN_EMAIL", ""),
		AdminPassword: getEnv("PLACIFY_ADMIN_PASSWORD", ""),
		Audit: AuditConfig{
			PurgeSchedule: getEnv("PLACIFY_AUDIT_PURGE_SCHEDULE", "@daily"),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("PLACIFY_REDIS_URL", ""),
		},
		Gate: GateConfig{
			BlockedTerms: splitList(getEnv("PLACIFY_BLOCKED_TERMS", "")),
		},
	}

	var err error
	if cfg.Debug, err = getBool("PLACIFY_DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getDuration("PLACIFY_TOKEN_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Audit.Retention, err = getDuration("PLACIFY_AUDIT_RETENTION", 180*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Cache.StatsTTL, err = getDuration("PLACIFY_STATS_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Events.QueueSize, err = getInt("PLACIFY_EVENT_QUEUE_SIZE", 256); err != nil {
		return Config{}, err
	}
	if cfg.Moderation.BatchLimit, err = getInt("PLACIFY_BATCH_LIMIT", 50); err != nil {
		return Config{}, err
	}
	if cfg.Gate.MaxLinks, err = getInt("PLACIFY_GATE_MAX_LINKS", 3); err != nil {
		return Config{}, err
	}

	if cfg.Moderation.BatchLimit < 1 || cfg.Moderation.BatchLimit > 50 {
		return Config{}, fmt.Errorf("PLACIFY_BATCH_LIMIT must be between 1 and 50, got %d", cfg.Moderation.BatchLimit)
	}
	if cfg.Environment == "production" && cfg.JWTSecret == "change-me-in-production" {
		return Config{}, fmt.Errorf("PLACIFY_JWT_SECRET must be set in production")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
