package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/transcript"
)

// RedisStore implements transcript storage using Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration for transcripts.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore creates a new Redis-based transcript store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "roundtable:transcript:",
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Save persists a transcript record to Redis and returns its key.
func (s *RedisStore) Save(ctx context.Context, record *transcript.Record) (string, error) {
	if record == nil || record.ID == "" {
		return "", fmt.Errorf("transcript record cannot be nil")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript record: %w", err)
	}

	key := s.recordKey(record.ID)
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}

	if err := s.client.SAdd(ctx, s.setKey(), record.ID).Err(); err != nil {
		return "", fmt.Errorf("failed to add transcript to index: %w", err)
	}

	return key, nil
}

// Load loads a transcript record from Redis.
func (s *RedisStore) Load(ctx context.Context, id string) (*transcript.Record, error) {
	raw, err := s.client.Get(ctx, s.recordKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	var record transcript.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode transcript record: %w", err)
	}
	return &record, nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + id
}

func (s *RedisStore) setKey() string {
	return s.prefix + "ids"
}
