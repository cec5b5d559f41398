package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        int         `yaml:"port"`
	DatabaseURL string      `yaml:"database_url"`
	JWTSecret   string      `yaml:"jwt_secret"`
	LogLevel    string      `yaml:"log_level"`
	TMDB        TMDBConfig  `yaml:"tmdb"`
	Cache       CacheConfig `yaml:"cache"`
}

type TMDBConfig struct {
	APIKey            string  `yaml:"api_key"`
	ReadToken         string  `yaml:"read_token"`
	BaseURL           string  `yaml:"base_url"`
	ImageBaseURL      string  `yaml:"image_base_url"`
	BackdropBaseURL   string  `yaml:"backdrop_base_url"`
	Language          string  `yaml:"language"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	FilterLevel       string  `yaml:"filter_level"`
	FilterRegion      string  `yaml:"filter_region"`
}

type CacheConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	SweepSchedule string `yaml:"sweep_schedule"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: skipping .env: %v", err)
	}
	return &Config{
		Port:        envInt("PORT", 8080),
		DatabaseURL: env("DATABASE_URL", "postgres://cinescope:cinescope@db:5432/cinescope?sslmode=disable"),
		JWTSecret:   env("JWT_SECRET", ""),
		LogLevel:    env("LOG_LEVEL", "info"),
		TMDB: TMDBConfig{
			APIKey:            env("TMDB_API_KEY", ""),
			ReadToken:         env("TMDB_API_READ_TOKEN", ""),
			BaseURL:           env("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL:      env("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
			BackdropBaseURL:   env("TMDB_BACKDROP_BASE_URL", "https://image.tmdb.org/t/p/w1280"),
			Language:          env("TMDB_LANGUAGE", "en-US"),
			RequestsPerSecond: envFloat("TMDB_REQUESTS_PER_SECOND", 20),
			TimeoutSec:        envInt("TMDB_TIMEOUT_SEC", 10),
			FilterLevel:       env("CONTENT_FILTER_LEVEL", "strict"),
			FilterRegion:      env("CONTENT_FILTER_REGION", "IN"),
		},
		Cache: CacheConfig{
			Backend:       env("CACHE_BACKEND", "memory"),
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			SweepSchedule: env("CACHE_SWEEP_SCHEDULE", "@every 1m"),
		},
	}
}

// MergeFromFile overlays the non-zero values of a YAML settings file.
func (c *Config) MergeFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	mergeString(&c.DatabaseURL, overlay.DatabaseURL)
	mergeString(&c.JWTSecret, overlay.JWTSecret)
	mergeString(&c.LogLevel, overlay.LogLevel)

	t := overlay.TMDB
	mergeString(&c.TMDB.APIKey, t.APIKey)
	mergeString(&c.TMDB.ReadToken, t.ReadToken)
	mergeString(&c.TMDB.BaseURL, t.BaseURL)
	mergeString(&c.TMDB.ImageBaseURL, t.ImageBaseURL)
	mergeString(&c.TMDB.BackdropBaseURL, t.BackdropBaseURL)
	mergeString(&c.TMDB.Language, t.Language)
	mergeString(&c.TMDB.FilterLevel, t.FilterLevel)
	mergeString(&c.TMDB.FilterRegion, t.FilterRegion)
	if t.RequestsPerSecond != 0 {
		c.TMDB.RequestsPerSecond = t.RequestsPerSecond
	}
	if t.TimeoutSec != 0 {
		c.TMDB.TimeoutSec = t.TimeoutSec
	}

	ca := overlay.Cache
	mergeString(&c.Cache.Backend, ca.Backend)
	mergeString(&c.Cache.RedisAddr, ca.RedisAddr)
	mergeString(&c.Cache.RedisPassword, ca.RedisPassword)
	mergeString(&c.Cache.SweepSchedule, ca.SweepSchedule)
	if ca.RedisDB != 0 {
		c.Cache.RedisDB = ca.RedisDB
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch strings.ToLower(c.TMDB.FilterLevel) {
	case "basic", "moderate", "strict":
	default:
		return fmt.Errorf("invalid content filter level %q", c.TMDB.FilterLevel)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache backend %q", c.Cache.Backend)
	}
	if c.TMDB.TimeoutSec <= 0 {
		return fmt.Errorf("tmdb timeout must be positive")
	}
	return nil
}

// CatalogConfigured reports whether catalog credentials are present. The
// service still starts without them; upstream calls will fail.
func (c *Config) CatalogConfigured() bool {
	return c.TMDB.APIKey != "" || c.TMDB.ReadToken != ""
}

func (c *Config) RedisEnabled() bool {
	return c.Cache.Backend == "redis" && c.Cache.RedisAddr != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
	}
	return fallback
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
