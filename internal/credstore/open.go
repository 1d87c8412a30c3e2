package credstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskpulse/taskpulse-go/internal/config"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
)

// Open builds the Store selected by cfg.Store.Backend. The returned cleanup
// releases any connection the store holds and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "", "file":
		path := cfg.Store.Path
		if path == "" {
			p, err := DefaultPath()
			if err != nil {
				return nil, noop, fmt.Errorf("credentials path: %w", err)
			}
			path = p
		}
		logger.Debugf("credstore: file backend at %s (context %s)", path, cfg.Client.Context)
		return NewFileStore(path, cfg.Client.Context), noop, nil
	case "redis":
		addr := cfg.Redis.Addr()
		if addr == "" {
			return nil, noop, fmt.Errorf("credstore: redis backend requires REDIS_HOST")
		}
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("credstore: redis ping: %w", err)
		}
		logger.Debugf("credstore: redis backend at %s (context %s)", addr, cfg.Client.Context)
		return NewRedisStore(client, cfg.Store.RedisPrefix, cfg.Client.Context), func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", config.ErrInvalidStoreBackend, cfg.Store.Backend)
	}
}
