package store

import (
	"os"
	"strconv"
	"time"
)

// RedisConfigFromEnv builds a RedisConfig from environment variables,
// falling back to defaults for anything unset.
func RedisConfigFromEnv() *RedisConfig {
	cfg := DefaultRedisConfig()
	cfg.Addr = getEnv("REDIS_ADDR", cfg.Addr)
	cfg.Password = getEnv("REDIS_PASSWORD", cfg.Password)
	cfg.DB = getEnvInt("REDIS_DB", cfg.DB)
	cfg.Prefix = getEnv("REDIS_PREFIX", cfg.Prefix)
	cfg.Window = getEnvInt("MEMORY_WINDOW", cfg.Window)
	return cfg
}

// MongoConfigFromEnv builds a MongoConfig from environment variables,
// falling back to defaults for anything unset.
func MongoConfigFromEnv() *MongoConfig {
	cfg := DefaultMongoConfig()
	cfg.URI = getEnv("MONGODB_URI", cfg.URI)
	cfg.Database = getEnv("MONGODB_DATABASE", cfg.Database)
	cfg.Collection = getEnv("MONGODB_COLLECTION", cfg.Collection)
	cfg.Timeout = getEnvDuration("MONGODB_TIMEOUT", cfg.Timeout)
	cfg.Window = getEnvInt("MEMORY_WINDOW", cfg.Window)
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
