package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sweetpotato0/transagent/memory"
	"github.com/sweetpotato0/transagent/message"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Window   int
}

// DefaultRedisConfig returns a config pointing at a local Redis.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "transagent:chat:",
		Window: memory.DefaultWindow,
	}
}

// RedisStore keeps each chat's history in a Redis list trimmed to the
// window. The question and answer of one exchange are pushed in a single
// pipeline so readers never observe half a turn.
type RedisStore struct {
	client *redis.Client
	prefix string
	window int
}

// NewRedisStore creates a Redis-backed conversation store.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	window := cfg.Window
	if window <= 0 {
		window = memory.DefaultWindow
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "transagent:chat:"
	}
	return &RedisStore{client: client, prefix: prefix, window: window}, nil
}

func (s *RedisStore) key(chatID string) string {
	return s.prefix + chatID
}

// History returns the chat's messages, oldest first.
func (s *RedisStore) History(ctx context.Context, chatID string) ([]*message.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(chatID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	messages := make([]*message.Message, 0, len(raw))
	for _, item := range raw {
		var msg message.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

// AppendExchange pushes the question and answer in one pipeline and trims
// the list to the window.
func (s *RedisStore) AppendExchange(ctx context.Context, chatID string, question, answer *message.Message) error {
	qData, err := json.Marshal(question)
	if err != nil {
		return fmt.Errorf("failed to encode question: %w", err)
	}
	aData, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}

	key := s.key(chatID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, qData, aData)
	pipe.LTrim(ctx, key, int64(-s.window), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

// Clear removes the chat's history.
func (s *RedisStore) Clear(ctx context.Context, chatID string) error {
	if err := s.client.Del(ctx, s.key(chatID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
