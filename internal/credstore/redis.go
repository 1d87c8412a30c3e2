package credstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the credential under "<prefix><context>:auth_token".
// No TTL is set; expiry is interpreted by the session layer, not here.
type RedisStore struct {
	client  redis.Cmdable
	prefix  string
	context string
}

// NewRedisStore creates a Redis-backed store. Prefix and context may be empty.
func NewRedisStore(client redis.Cmdable, prefix, contextName string) *RedisStore {
	if prefix == "" {
		prefix = "taskpulse:"
	}
	if contextName == "" {
		contextName = DefaultContext
	}
	return &RedisStore{client: client, prefix: prefix, context: contextName}
}

func (r *RedisStore) key() string {
	return r.prefix + r.context + ":" + TokenKey
}

func (r *RedisStore) Store(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key(), token, 0).Err()
}

func (r *RedisStore) Retrieve(ctx context.Context) (string, error) {
	v, err := r.client.Get(ctx, r.key()).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key()).Err()
}
