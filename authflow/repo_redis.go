package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/mergington/go-activity-server/internal/errors"
)

const redisKeyPrefix = "pending_auth:"

// RedisRepo stores pending auths in Redis so multiple server instances can
// share one login flow. Keys expire via Redis TTL; GETDEL gives the atomic
// take semantics the flow requires.
type RedisRepo struct {
	client *redis.Client
}

var _ Repo = (*RedisRepo)(nil)

// NewRedisRepo creates a Redis-backed pending-auth repository
func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) Upsert(ctx context.Context, state string, pending *PendingAuth, ttl time.Duration) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if pending == nil {
		return errors.New("pending cannot be nil")
	}

	payload, err := json.Marshal(pending)
	if err != nil {
		return apperrors.Wrapf(err, "[RedisRepo Upsert] marshal pending auth")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+state, payload, ttl).Err(); err != nil {
		return apperrors.Wrapf(err, "[RedisRepo Upsert] redis SET")
	}
	return nil
}

func (r *RedisRepo) Take(ctx context.Context, state string) (*PendingAuth, error) {
	if state == "" {
		return nil, apperrors.ErrStateNotFound
	}

	payload, err := r.client.GetDel(ctx, redisKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrStateNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[RedisRepo Take] redis GETDEL")
	}

	var pending PendingAuth
	if err := json.Unmarshal([]byte(payload), &pending); err != nil {
		return nil, apperrors.Wrapf(err, "[RedisRepo Take] unmarshal pending auth")
	}
	return &pending, nil
}

// DeleteExpired is a no-op: Redis evicts pending auths via key TTL.
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
