package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const historyKeyPrefix = "chat_history:"

// HistoryStore is the append-only chat history log, backed by a Redis list
// per user. Insertion order is the sequence marker: RPUSH preserves it and
// LRANGE reads it back.
type HistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewHistoryStore creates a history store on the given Redis client.
func NewHistoryStore(redisClient *redis.Client) *HistoryStore {
	if redisClient == nil {
		panic("chat: redis client cannot be nil")
	}
	return &HistoryStore{
		redis:  redisClient,
		tracer: otel.Tracer("neurowell.internal.chat.history"),
	}
}

// Append persists one inbound message at the tail of the user's log.
func (s *HistoryStore) Append(ctx context.Context, msg Message) error {
	if msg.UserID == "" {
		return errors.New("chat: history append requires a user id")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Role == "" {
		msg.Role = RoleUser
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("chat: marshal history message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "chat.history.append")
	defer span.End()

	if err := s.redis.RPush(ctx, historyKey(msg.UserID), data).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: append history message: %w", err)
	}
	return nil
}

// LastN returns up to n most recent messages for the user, most-recent-first.
// Use Chronological to restore causal order for completion-service context.
func (s *HistoryStore) LastN(ctx context.Context, userID string, n int) ([]Message, error) {
	if userID == "" {
		return nil, errors.New("chat: history query requires a user id")
	}

	ctx, span := s.tracer.Start(ctx, "chat.history.last_n")
	defer span.End()

	start := int64(0)
	if n > 0 {
		start = -int64(n)
	}

	raw, err := s.redis.LRange(ctx, historyKey(userID), start, -1).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("chat: load history: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg Message
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}
