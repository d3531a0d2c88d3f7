package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/mergington/go-activity-server/internal/errors"
)

const redisKeyPrefix = "session:"

// RedisRepo stores sessions in Redis so the session map survives restarts
// and can be shared across server instances. Keys carry the session's
// remaining refresh lifetime as their TTL.
type RedisRepo struct {
	client *redis.Client
}

var _ Repo = (*RedisRepo)(nil)

// NewRedisRepo creates a Redis-backed session repository
func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) Upsert(ctx context.Context, sessionID string, session Session, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrapf(err, "[RedisRepo Upsert] marshal session")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+sessionID, payload, ttl).Err(); err != nil {
		return apperrors.Wrapf(err, "[RedisRepo Upsert] redis SET")
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, apperrors.ErrSessionNotFound
	}

	payload, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return Session{}, apperrors.Wrapf(err, "[RedisRepo Get] redis GET")
	}

	var session Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return Session{}, apperrors.Wrapf(err, "[RedisRepo Get] unmarshal session")
	}
	return session, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := r.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return apperrors.Wrapf(err, "[RedisRepo Delete] redis DEL")
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts dead sessions via key TTL.
func (r *RedisRepo) DeleteExpired(context.Context, time.Time) error {
	return nil
}

func (r *RedisRepo) Len(ctx context.Context) (int, error) {
	var count int
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, apperrors.Wrapf(err, "[RedisRepo Len] redis SCAN")
	}
	return count, nil
}
