package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port        string
	PostgresDSN string
	MongoURI    string
	MongoDB     string

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret string
	TokenTTL  time.Duration

	ShelterCacheTTL time.Duration

	LogLevel  string
	LogFormat string

	CORSOrigins []string
}

// Load reads the environment, honoring an optional .env file. The
// signing secret has no default because tokens minted with a guessable
// key would verify anywhere.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getenv("PORT", "8080"),
		PostgresDSN: must("POSTGRES_DSN"),
		MongoURI:    must("MONGO_URI"),
		MongoDB:     getenv("MONGO_DB", "furever"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "event-images"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		JWTSecret: must("JWT_SECRET"),
		TokenTTL:  getdur("TOKEN_TTL", time.Hour),

		ShelterCacheTTL: getdur("SHELTER_CACHE_TTL", 5*time.Minute),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		CORSOrigins: splitenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", v).Dur("default", fallback).
			Msg("invalid duration, using default")
	}
	return fallback
}

func splitenv(key, fallback string) []string {
	v := getenv(key, fallback)
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func must(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatal().Str("key", key).Msg("missing required env")
	}
	return v
}
