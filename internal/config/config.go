package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	HTTPAddr     string
	APIKeyPepper string
	JWTSecret    string
	AdminToken   string

	RateLimitPerMinute int
	RequestTimeoutSecs int
}

func Load() (Config, error) {
	// Optional: load local .env for development. Missing file is fine.
	_ = godotenv.Load()

	rateLimit := getenvIntDefault("AGENTOPS_RATE_LIMIT_PER_MINUTE", 120)
	if rateLimit < 1 {
		rateLimit = 1
	}

	reqTimeout := getenvIntDefault("AGENTOPS_REQUEST_TIMEOUT_SECONDS", 10)
	if reqTimeout < 1 {
		reqTimeout = 1
	}
	if reqTimeout > 60 {
		reqTimeout = 60
	}

	cfg := Config{
		DatabaseURL:  os.Getenv("AGENTOPS_DATABASE_URL"),
		HTTPAddr:     getenvDefault("AGENTOPS_HTTP_ADDR", ":8080"),
		APIKeyPepper: os.Getenv("AGENTOPS_API_KEY_PEPPER"),
		JWTSecret:    strings.TrimSpace(os.Getenv("AGENTOPS_JWT_SECRET")),
		AdminToken:   strings.TrimSpace(os.Getenv("AGENTOPS_ADMIN_TOKEN")),

		RateLimitPerMinute: rateLimit,
		RequestTimeoutSecs: reqTimeout,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("AGENTOPS_DATABASE_URL is required")
	}
	if cfg.APIKeyPepper == "" {
		return Config{}, errors.New("AGENTOPS_API_KEY_PEPPER is required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
