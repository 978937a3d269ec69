package store

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sweetpotato0/roundtable/transcript"
)

// FileConfigFromEnv loads file store configuration from environment variables.
func FileConfigFromEnv() *FileConfig {
	return &FileConfig{
		Dir: getEnv("TRANSCRIPT_DIR", "transcripts"),
	}
}

// RedisConfigFromEnv loads Redis configuration from environment variables.
func RedisConfigFromEnv() *RedisConfig {
	return &RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		Prefix:   getEnv("REDIS_PREFIX", "roundtable:transcript:"),
		TTL:      getEnvDuration("REDIS_TTL", 0),
	}
}

// PostgresConfigFromEnv loads PostgreSQL configuration from environment variables.
func PostgresConfigFromEnv() *PostgresConfig {
	return &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvInt("POSTGRES_PORT", 5432),
		User:     getEnv("POSTGRES_USER", "postgres"),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		DBName:   getEnv("POSTGRES_DB", "roundtable"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// MongoConfigFromEnv loads MongoDB configuration from environment variables.
func MongoConfigFromEnv() *MongoConfig {
	return &MongoConfig{
		URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:   getEnv("MONGODB_DB", "roundtable"),
		Collection: getEnv("MONGODB_COLLECTION", "transcripts"),
	}
}

// Open selects a transcript store backend by name: "file" (default),
// "redis", "postgres", "mongo" or "memory". Backend settings come from the
// environment.
func Open(backend string) (transcript.Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(FileConfigFromEnv())
	case "redis":
		return NewRedisStore(RedisConfigFromEnv()), nil
	case "postgres":
		return NewPostgresStore(PostgresConfigFromEnv())
	case "mongo":
		return NewMongoStore(MongoConfigFromEnv())
	case "memory":
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown transcript store backend %q", backend)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
