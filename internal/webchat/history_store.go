package webchat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptTTL = 24 * time.Hour

// TranscriptMessage is one entry in a webchat transcript.
type TranscriptMessage struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore reads and appends chat transcripts.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, msg TranscriptMessage) error
	List(ctx context.Context, sessionID string, limit int64) ([]TranscriptMessage, error)
}

// RedisHistory keeps webchat transcripts in Redis lists.
type RedisHistory struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisHistory creates a Redis-backed transcript store.
func NewRedisHistory(rdb *redis.Client, tracer trace.Tracer) *RedisHistory {
	if rdb == nil {
		panic("webchat: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("concierge.internal.webchat.history")
	}
	return &RedisHistory{
		redis:  rdb,
		tracer: tracer,
	}
}

// Append adds one message to a session transcript and refreshes its TTL.
func (s *RedisHistory) Append(ctx context.Context, sessionID string, msg TranscriptMessage) error {
	ctx, span := s.tracer.Start(ctx, "webchat.append_transcript")
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("webchat: failed to marshal transcript message: %w", err)
	}

	key := transcriptKey(sessionID)
	pipe := s.redis.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, transcriptTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("webchat: failed to append transcript: %w", err)
	}
	return nil
}

// List returns up to limit most recent transcript messages, oldest first.
func (s *RedisHistory) List(ctx context.Context, sessionID string, limit int64) ([]TranscriptMessage, error) {
	ctx, span := s.tracer.Start(ctx, "webchat.list_transcript")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	raw, err := s.redis.LRange(ctx, transcriptKey(sessionID), -limit, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("webchat: failed to load transcript: %w", err)
	}

	msgs := make([]TranscriptMessage, 0, len(raw))
	for _, item := range raw {
		var msg TranscriptMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("webchat: failed to decode transcript message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func transcriptKey(sessionID string) string {
	return fmt.Sprintf("webchat_transcript:%s", sessionID)
}
