// Package config содержит логику чтения конфигурации сервиса прачечной.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultTokenTTL          = 24 * time.Hour
	defaultAnalyticsCacheTTL = time.Minute
	defaultLogLevel          = "info"
)

// Config содержит параметры конфигурации сервиса прачечной.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	JWTSecret         string        `env:"JWT_SECRET"`
	TokenTTL          time.Duration `env:"TOKEN_TTL"`
	RedisAddress      string        `env:"REDIS_ADDRESS"`
	AnalyticsCacheTTL time.Duration `env:"ANALYTICS_CACHE_TTL"`
	AdminUsername     string        `env:"ADMIN_USERNAME"`
	AdminPassword     string        `env:"ADMIN_PASSWORD"`
	LogLevel          string        `env:"LOG_LEVEL"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "", "secret for signing access tokens")
	flag.DurationVar(&cfg.TokenTTL, "t", defaultTokenTTL, "access token lifetime")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for analytics cache")
	flag.DurationVar(&cfg.AnalyticsCacheTTL, "c", defaultAnalyticsCacheTTL, "analytics cache TTL")
	flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.JWTSecret != "" {
		cfg.JWTSecret = fromEnv.JWTSecret
	}
	if fromEnv.TokenTTL != 0 {
		cfg.TokenTTL = fromEnv.TokenTTL
	}
	if fromEnv.RedisAddress != "" {
		cfg.RedisAddress = fromEnv.RedisAddress
	}
	if fromEnv.AnalyticsCacheTTL != 0 {
		cfg.AnalyticsCacheTTL = fromEnv.AnalyticsCacheTTL
	}
	if fromEnv.LogLevel != "" {
		cfg.LogLevel = fromEnv.LogLevel
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	return cfg, nil
}
