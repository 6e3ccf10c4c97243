// Package config reads service configuration from the environment and
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application configuration.
type Config struct {
	ListenAddr string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	BlobDir string
	BaseURL string

	RedisAddr       string
	RedisPassword   string
	GeocodeCacheTTL time.Duration

	OpenCageKey string

	JWTSecret    string
	PasswordHash string
}

// Load reads configuration from environment variables and .env. An
// empty MONGO_URI selects the in-memory location index; an empty
// REDIS_ADDR disables the geocode cache.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDatabase:   getenv("MONGO_DATABASE", "photomap"),
		MongoCollection: getenv("MONGO_COLLECTION", "locations"),
		BlobDir:         getenv("BLOB_DIR", "./.uploads"),
		BaseURL:         getenv("BASE_URL", "http://localhost:8080"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		GeocodeCacheTTL: 30 * 24 * time.Hour,
		OpenCageKey:     os.Getenv("OPENCAGE_API_KEY"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		PasswordHash:    os.Getenv("PW_HASH"),
	}

	if ttl := os.Getenv("GEOCODE_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GEOCODE_CACHE_TTL: %w", err)
		}
		cfg.GeocodeCacheTTL = d
	}

	if cfg.OpenCageKey == "" {
		return Config{}, fmt.Errorf("OPENCAGE_API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PasswordHash == "" {
		return Config{}, fmt.Errorf("PW_HASH is required")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
