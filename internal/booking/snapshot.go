package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const snapshotTTL = 24 * time.Hour

// SnapshotStore persists booking session state in Redis so a dialogue
// survives process restarts. Snapshots expire with the conversation TTL.
type SnapshotStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewSnapshotStore creates a Redis-backed snapshot store.
func NewSnapshotStore(rdb *redis.Client, tracer trace.Tracer) *SnapshotStore {
	if rdb == nil {
		panic("booking: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("concierge.internal.booking.snapshot")
	}
	return &SnapshotStore{
		redis:  rdb,
		tracer: tracer,
	}
}

// Save persists a session snapshot.
func (s *SnapshotStore) Save(ctx context.Context, state State) error {
	ctx, span := s.tracer.Start(ctx, "booking.save_snapshot")
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to marshal snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, snapshotKey(state.SessionID), data, snapshotTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to persist snapshot: %w", err)
	}
	return nil
}

// Load retrieves a session snapshot. A missing snapshot returns nil
// without error.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "booking.load_snapshot")
	defer span.End()

	data, err := s.redis.Get(ctx, snapshotKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("booking: failed to load snapshot: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking: failed to decode snapshot: %w", err)
	}
	return &state, nil
}

// Delete removes a session snapshot, used when a dialogue ends.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "booking.delete_snapshot")
	defer span.End()

	if err := s.redis.Del(ctx, snapshotKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to delete snapshot: %w", err)
	}
	return nil
}

func snapshotKey(id string) string {
	return fmt.Sprintf("booking_session:%s", id)
}
