package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port    string
	GinMode string

	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Push     PushConfig
	Upload   UploadConfig
	Limits   RateLimitConfig
	Cleanup  CleanupConfig

	RabbitMQURL string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver string // mysql | postgres | sqlite
	DSN    string
}

type AuthConfig struct {
	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
}

type RedisConfig struct {
	Addr     string // empty disables the session registry
	Password string
}

type PushConfig struct {
	VAPIDPublicKey      string
	VAPIDPrivateKey     string
	VAPIDSubject        string
	FirebaseCredentials string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type CleanupConfig struct {
	Interval              time.Duration
	NotificationRetention time.Duration
	HistoryRetention      time.Duration
}

const devJWTSecret = "dev-secret-change-me"

// Load reads configuration from the environment. JWT_SECRET is mandatory
// unless GIN_MODE is debug or test.
func Load() (*Config, error) {
	cfg, err := load(getEnv("JWT_SECRET", ""))
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" && cfg.GinMode == "release" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required in release mode")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but never fails on a missing JWT_SECRET.
// Only for local development and tooling.
func LoadWithDefaults() (*Config, error) {
	return load(getEnv("JWT_SECRET", devJWTSecret))
}

func load(secret string) (*Config, error) {
	var errs []string
	num := func(key string, def float64) float64 {
		v, err := getEnvFloat(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	dur := func(key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			DSN:    getEnv("DB_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret:    secret,
			SessionTTL:   dur("SESSION_TTL", 7*24*time.Hour),
			CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Push: PushConfig{
			VAPIDPublicKey:      getEnv("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey:     getEnv("VAPID_PRIVATE_KEY", ""),
			VAPIDSubject:        getEnv("VAPID_SUBJECT", "mailto:admin@baytna.local"),
			FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: int64(num("UPLOAD_MAX_MB", 5) * 1024 * 1024),
		},
		Limits: RateLimitConfig{
			RPS:   num("RATE_LIMIT_RPS", 10),
			Burst: int(num("RATE_LIMIT_BURST", 20)),
		},
		Cleanup: CleanupConfig{
			Interval:              dur("CLEANUP_INTERVAL", 6*time.Hour),
			NotificationRetention: dur("NOTIFICATION_RETENTION", 30*24*time.Hour),
			HistoryRetention:      dur("HISTORY_RETENTION", 90*24*time.Hour),
		},
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}

	switch cfg.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("unsupported DB_DRIVER %q", cfg.Database.Driver))
	}
	positive := []struct {
		key string
		d   time.Duration
	}{
		{"SESSION_TTL", cfg.Auth.SessionTTL},
		{"CLEANUP_INTERVAL", cfg.Cleanup.Interval},
		{"NOTIFICATION_RETENTION", cfg.Cleanup.NotificationRetention},
		{"HISTORY_RETENTION", cfg.Cleanup.HistoryRetention},
	}
	for _, p := range positive {
		if p.d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %s", p.key, p.d))
		}
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "baytna.db"
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// String returns a representation safe for logs.
func (c *Config) String() string {
	return fmt.Sprintf("Config{port: %s, mode: %s, db: %s, redis: %t, rabbitmq: %t, webpush: %t, fcm: %t, auth: *** (masked) ***}",
		c.Port, c.GinMode, c.Database.Driver, c.Redis.Addr != "", c.RabbitMQURL != "",
		c.Push.VAPIDPrivateKey != "", c.Push.FirebaseCredentials != "")
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %w", key, err)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("90m") or a plain number of days ("30").
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	if days, err := strconv.Atoi(value); err == nil {
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
