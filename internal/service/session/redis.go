package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/voxlane/callpilot/backend/internal/model/conversation"
)

const turnsKeyPrefix = "callpilot:session:turns:"

// RedisStore persists conversation history in Redis lists, with a server-side
// idle TTL refreshed on every append. It is selected over MemoryStore when a
// Redis address is configured.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func turnsKey(sessionID string) string {
	return turnsKeyPrefix + sessionID
}

// AppendTurn pushes one JSON-encoded turn and refreshes the session TTL.
func (s *RedisStore) AppendTurn(ctx context.Context, sessionID, role, content string) (conversation.Turn, error) {
	turn := conversation.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(turn)
	if err != nil {
		return conversation.Turn{}, fmt.Errorf("failed to encode turn: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, turnsKey(sessionID), payload)
	if s.ttl > 0 {
		pipe.Expire(ctx, turnsKey(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return conversation.Turn{}, fmt.Errorf("failed to append turn: %w", err)
	}

	return turn, nil
}

// History loads all turns for the session, oldest first.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	entries, err := s.client.LRange(ctx, turnsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	turns := make([]conversation.Turn, 0, len(entries))
	for _, entry := range entries {
		var turn conversation.Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, fmt.Errorf("failed to decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear deletes the session's history.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, turnsKey(sessionID)).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
