package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	DatabaseReadDSN        string
	DatabaseLogLevel       string
	RateLimit              int
	RateLimitBackend       string
	RedisAddr              string
	RedisRateLimitPrefix   string
	ShutdownTimeoutSeconds int
	TransitionPolicy       string
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "tasks.db"),
		DatabaseReadDSN:        getEnv("DATABASE_READ_DSN", ""),
		DatabaseLogLevel:       strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBackend:       strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisRateLimitPrefix:   getEnv("REDIS_RATE_LIMIT_PREFIX", "task_manager_rate"),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
		TransitionPolicy:       strings.ToLower(getEnv("TASK_TRANSITION_POLICY", "any")),
	}

	if err := validate(cfg); err != nil {
		log.Fatal(err)
	}
	return cfg
}

// ReadDSN is the connection used for read-only queries. It falls back to the
// primary database when no replica is configured.
func (c Config) ReadDSN() string {
	if c.DatabaseReadDSN != "" {
		return c.DatabaseReadDSN
	}
	return c.DatabaseDSN
}

func validate(cfg Config) error {
	if cfg.AppURL == "" {
		return fmt.Errorf("APP_HOST and APP_PORT must not be empty (e.g. 127.0.0.1:8080)")
	}
	if cfg.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.RateLimitBackend != "memory" && cfg.RateLimitBackend != "redis" {
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis, got %q", cfg.RateLimitBackend)
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	}
	if _, err := parseLogLevel(cfg.DatabaseLogLevel); err != nil {
		return err
	}
	switch cfg.TransitionPolicy {
	case "any", "sequential":
	default:
		return fmt.Errorf("TASK_TRANSITION_POLICY must be any or sequential, got %q", cfg.TransitionPolicy)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
