package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the movie voting API.
type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	TMDB      TMDBConfig
	Auth      AuthConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Port      string
	APIPrefix string
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	SSLRootCert  string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey         string
	BaseURL        string
	SearchCacheTTL time.Duration
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	SecretKey   string
	Algorithm   string
	TokenExpiry time.Duration
}

// AdminConfig describes the superuser created at startup.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Enabled reports whether a bootstrap superuser is configured.
func (a AdminConfig) Enabled() bool {
	return a.Username != "" && a.Email != "" && a.Password != ""
}

// RateLimitConfig bounds requests per client IP on the auth endpoints.
type RateLimitConfig struct {
	Max           int
	WindowSeconds int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxOpen, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "10"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	expireMinutes, err := strconv.Atoi(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if err != nil || expireMinutes <= 0 {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %q", os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"))
	}
	cacheSeconds, _ := strconv.Atoi(getEnv("TMDB_SEARCH_CACHE_SECONDS", "600"))
	rateLimitMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "20"))
	rateLimitWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))

	cfg := &Config{
		DB: DBConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         dbPort,
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "movievotr"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			SSLRootCert:  getEnv("DB_SSLROOTCERT", ""),
			MaxOpenConns: maxOpen,
			MaxIdleConns: maxIdle,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		TMDB: TMDBConfig{
			APIKey:         getEnv("TMDB_API_KEY", ""),
			BaseURL:        getEnv("TMDB_API_URL", "https://api.themoviedb.org/3"),
			SearchCacheTTL: time.Duration(cacheSeconds) * time.Second,
		},
		Auth: AuthConfig{
			SecretKey:   os.Getenv("SECRET_KEY"),
			Algorithm:   getEnv("ALGORITHM", "HS256"),
			TokenExpiry: time.Duration(expireMinutes) * time.Minute,
		},
		Admin: AdminConfig{
			Username: os.Getenv("ADMIN_USERNAME"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			Max:           rateLimitMax,
			WindowSeconds: rateLimitWindow,
		},
		Port:      getEnv("SERVER_PORT", "8000"),
		APIPrefix: getEnv("API_URL", "/api/v1"),
	}

	if cfg.Auth.SecretKey == "" {
		return nil, errors.New("SECRET_KEY is required")
	}
	switch cfg.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported ALGORITHM %q", cfg.Auth.Algorithm)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
