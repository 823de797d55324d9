package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

// RedisStore keeps one JSON document per session under session:{id} with the
// idle TTL applied on every save, so expiry replaces the in-memory sweep.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifetime; Close here is a no-op.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID string) (*State, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewState(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		zap.L().Warn("discarding unreadable session state",
			zap.String("session_id", sessionID), zap.Error(err))
		return NewState(sessionID), nil
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", st.ID, err)
	}
	if err := s.client.Set(ctx, sessionKey(st.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", st.ID, err)
	}
	return nil
}

func (s *RedisStore) RecordAction(ctx context.Context, sessionID string, rec models.ActionRecord) error {
	st, err := s.GetOrCreate(ctx, sessionID)
	if err != nil {
		return err
	}
	st.PushAction(rec)
	st.Touch()
	return s.Save(ctx, st)
}

// Sweep is a no-op: key expiry removes idle sessions.
func (s *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close() error {
	return nil
}
