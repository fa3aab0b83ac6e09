package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppEnv   string // dev or prod
	LogLevel slog.Level
	Port     string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherLang    string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// Client-side budget for provider calls (0 = unlimited).
	UpstreamRateLimit float64
	UpstreamRateBurst int

	// Provider probing.
	ProbeInterval   time.Duration // 0 disables the scheduled probe
	ProbeCity       string
	ProbeMaxHistory int           // max number of probe results kept (0 = unlimited)
	ProbeMaxAge     time.Duration // max age of probe results (0 = unlimited)

	// DotEnvErr is the result of loading .env; a missing file is not fatal.
	DotEnvErr error
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfg.DotEnvErr = godotenv.Load()

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "3000")

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.OpenWeatherLang = getenvDefault("OPENWEATHER_LANG", "es")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	rateStr := getenvDefault("UPSTREAM_RATE_LIMIT", "0")
	cfg.UpstreamRateLimit, err = strconv.ParseFloat(rateStr, 64)
	if err != nil || cfg.UpstreamRateLimit < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_RATE_LIMIT %q", rateStr)
	}
	cfg.UpstreamRateBurst = getenvInt("UPSTREAM_RATE_BURST", 5)

	if cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	cfg.ProbeCity = getenvDefault("PROBE_CITY", "London")
	cfg.ProbeMaxHistory = getenvInt("PROBE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.ProbeMaxAge, err = getenvDuration("PROBE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasAPIKey reports whether a provider credential is configured.
func (c *AppConfig) HasAPIKey() bool {
	return c.OpenWeatherAPIKey != ""
}

// MaskedAPIKey returns the first 8 characters of the key followed by "...".
func (c *AppConfig) MaskedAPIKey() string {
	if len(c.OpenWeatherAPIKey) <= 8 {
		return strings.Repeat("*", len(c.OpenWeatherAPIKey))
	}
	return c.OpenWeatherAPIKey[:8] + "..."
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
