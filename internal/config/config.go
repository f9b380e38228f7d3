package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	AuthMode                 string
	SessionVerifyURL         string
	SessionVerifyTimeoutSecs int
	AdminAPIKey              string

	DefaultAppID  string
	SharedDomains []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DomainCacheTTLSecs int

	RateLimitRequests       int
	RateLimitWindowSeconds  int
	RateLimitIncludeSubject bool
	RateLimitFailClosed     bool
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:                 addr,
		PostgresDSN:              os.Getenv("POSTGRES_DSN"),
		LogLevel:                 envDefault("LOG_LEVEL", "info"),
		AuthMode:                 os.Getenv("AUTH_MODE"),
		SessionVerifyURL:         os.Getenv("SESSION_VERIFY_URL"),
		SessionVerifyTimeoutSecs: envIntDefault("SESSION_VERIFY_TIMEOUT_SECONDS", 5),
		AdminAPIKey:              os.Getenv("ADMIN_API_KEY"),
		DefaultAppID:             envDefault("DEFAULT_APP_ID", "web"),
		SharedDomains:            splitList(os.Getenv("SHARED_DOMAINS")),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  envIntDefault("REDIS_DB", 0),
		DomainCacheTTLSecs:       envIntDefault("DOMAIN_CACHE_TTL_SECONDS", 300),
		RateLimitRequests:        envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds:   envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitIncludeSubject:  envBoolDefault("RATE_LIMIT_INCLUDE_SUBJECT", false),
		RateLimitFailClosed:      envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
	}
}

func (c Config) SessionVerifyTimeout() time.Duration {
	if c.SessionVerifyTimeoutSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.SessionVerifyTimeoutSecs) * time.Second
}

func (c Config) DomainCacheTTL() time.Duration {
	if c.DomainCacheTTLSecs <= 0 {
		return 0
	}
	return time.Duration(c.DomainCacheTTLSecs) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
