package clientstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "clientstore:"
	redisEventsTopic = "clientstore:events"
)

// RedisStore implements Store on Redis. Each value lives under a prefixed
// key; every write publishes the bare key name on a pub/sub channel so that
// other storefront instances observe the change.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a Redis-backed client store.
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	s.notify(ctx, key)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	s.notify(ctx, key)
	return nil
}

// notify publishes a change event. Publish failures only cost freshness for
// concurrent watchers, so they are logged and swallowed.
func (s *RedisStore) notify(ctx context.Context, key string) {
	if err := s.client.Publish(ctx, redisEventsTopic, key).Err(); err != nil {
		s.logger.WarnContext(ctx, "clientstore change notification failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (s *RedisStore) Watch(ctx context.Context) (<-chan Event, error) {
	sub := s.client.Subscribe(ctx, redisEventsTopic)

	// Force the subscription to be established before returning so callers
	// do not miss writes that happen right after Watch.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case events <- Event{Key: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
