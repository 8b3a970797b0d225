package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrorMode controls how the user lookup reports unknown ids.
type ErrorMode string

const (
	// ModeParity answers unknown ids with 200 and an Error body.
	ModeParity ErrorMode = "parity"
	// ModeHardened answers unknown ids with 404.
	ModeHardened ErrorMode = "hardened"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Host            string
	Port            string
	Debug           bool
	ErrorMode       ErrorMode
	RedisAddr       string
	CacheTTL        time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "5000"),
		ErrorMode:   ErrorMode(strings.ToLower(getEnv("ERROR_MODE", string(ModeParity)))),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.Debug, err = getEnvBool("DEBUG", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimit, err = getEnvInt("RATE_LIMIT", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("%w: PORT %q", ErrInvalidConfig, c.Port)
	}
	switch c.ErrorMode {
	case ModeParity, ModeHardened:
	default:
		return fmt.Errorf("%w: ERROR_MODE %q", ErrInvalidConfig, c.ErrorMode)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: RATE_LIMIT must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit > 0 && c.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_WINDOW must be positive", ErrInvalidConfig)
	}
	return nil
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return b, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
