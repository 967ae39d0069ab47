package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	IPHashSecret      string
	RateLimitMax      int
	RateLimitWindow   time.Duration
	RateLimitPrefix   string
	AnalyticsCacheTTL time.Duration
	StoreTimeout      time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// RateLimitEnabled reports whether a counter backend has been configured.
// An empty redis URL is a legitimate mode: limiting is disabled entirely.
func (c Config) RateLimitEnabled() bool {
	return c.RedisURL != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LOOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Loom API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window", "1h")
	v.SetDefault("rate_limit.prefix", "ratelimit")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("store.timeout", "3s")

	window, err := parseDuration(v.GetString("rate_limit.window"), "rate limit window")
	if err != nil {
		return Config{}, err
	}

	ttl, err := parseDuration(v.GetString("analytics.cache_ttl"), "analytics cache ttl")
	if err != nil {
		return Config{}, err
	}

	storeTimeout, err := parseDuration(v.GetString("store.timeout"), "store timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		IPHashSecret:      v.GetString("ip_hash.secret"),
		RateLimitMax:      v.GetInt("rate_limit.max"),
		RateLimitWindow:   window,
		RateLimitPrefix:   v.GetString("rate_limit.prefix"),
		AnalyticsCacheTTL: ttl,
		StoreTimeout:      storeTimeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	// The daily anonymization salt derives from this value, so a silent
	// fallback to a public default would weaken every stored hash.
	if cfg.IPHashSecret == "" {
		return Config{}, fmt.Errorf("ip hash secret must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 20
	}

	return cfg, nil
}

func parseDuration(value, label string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("%s must not be empty", label)
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", label, err)
	}

	return parsed, nil
}
