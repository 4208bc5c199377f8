package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	AppEnv    string
	Port      string
	APIPrefix string

	DatabaseDriver string
	DatabaseURL    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	SessionSecret string

	CORSOrigins []string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushTTL         int

	LoginRatePerMinute int

	// MetricsAddr is the private listener for /metrics; empty disables it.
	MetricsAddr string

	SuperAdminName     string
	SuperAdminEmail    string
	SuperAdminPassword string

	LogLevel slog.Level
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		AppEnv:             fallback(os.Getenv("APP_ENV"), "local"),
		Port:               fallback(os.Getenv("PORT"), "8080"),
		APIPrefix:          normalizePrefix(fallback(os.Getenv("API_PREFIX"), "/api")),
		DatabaseDriver:     strings.ToLower(fallback(os.Getenv("DATABASE_DRIVER"), "postgres")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            intOr(os.Getenv("REDIS_DB"), 0),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:          fallback(os.Getenv("JWT_ISSUER"), "rolepush"),
		JWTTTL:             time.Duration(positiveIntOr(os.Getenv("JWT_TTL_MINUTES"), 1440)) * time.Minute,
		CORSOrigins:        parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		VAPIDPublicKey:     strings.TrimSpace(os.Getenv("VAPID_PUBLIC_KEY")),
		VAPIDPrivateKey:    strings.TrimSpace(os.Getenv("VAPID_PRIVATE_KEY")),
		VAPIDSubject:       fallback(os.Getenv("VAPID_SUBJECT"), "mailto:admin@example.com"),
		PushTTL:            positiveIntOr(os.Getenv("PUSH_TTL_SECONDS"), 30),
		LoginRatePerMinute: positiveIntOr(os.Getenv("LOGIN_RATE_PER_MINUTE"), 60),
		MetricsAddr:        metricsAddr(os.Getenv("METRICS_ADDR")),
		SuperAdminName:     fallback(os.Getenv("SUPER_ADMIN_NAME"), "Super Admin"),
		SuperAdminEmail:    strings.TrimSpace(os.Getenv("SUPER_ADMIN_EMAIL")),
		SuperAdminPassword: os.Getenv("SUPER_ADMIN_PASSWORD"),
		LogLevel:           parseLevel(os.Getenv("LOG_LEVEL")),
	}
	cfg.SessionSecret = fallback(os.Getenv("SESSION_SECRET"), cfg.JWTSecret)

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return Config{}, errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction gates error detail in responses.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func intOr(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return n
	}
	return def
}

func positiveIntOr(value string, def int) int {
	if n := intOr(value, def); n > 0 {
		return n
	}
	return def
}

func normalizePrefix(p string) string {
	p = strings.TrimRight(p, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// metricsAddr keeps /metrics on loopback unless told otherwise; "off"
// disables the listener.
func metricsAddr(value string) string {
	switch v := strings.TrimSpace(value); v {
	case "":
		return "127.0.0.1:9090"
	case "off":
		return ""
	default:
		return v
	}
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
