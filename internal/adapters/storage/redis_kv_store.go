package storage

import (
	"context"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

var _ ports.KVStore = (*RedisKVStore)(nil)

// RedisKVStore keeps each key as a plain Redis string.
// Prefix namespaces the keys so several deployments can share one Redis.
type RedisKVStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisKVStore(client *redis.Client, prefix string) *RedisKVStore {
	return &RedisKVStore{Client: client, Prefix: prefix}
}

// Connect to Redis and verify the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	return client, nil
}

func (s *RedisKVStore) key(k string) string {
	return s.Prefix + k
}

func (s *RedisKVStore) Load(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "kv.redis.Load")(&err)

	if s.Client == nil {
		return "", false, errors.New("redis kv store: client is nil")
	}

	value, err := s.Client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load key %q: %w", key, err)
	}

	return value, true, nil
}

func (s *RedisKVStore) Save(ctx context.Context, key string, value string) (err error) {
	defer obs.Time(ctx, "kv.redis.Save")(&err)

	if s.Client == nil {
		return errors.New("redis kv store: client is nil")
	}

	if err := s.Client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("save key %q: %w", key, err)
	}

	return nil
}

func (s *RedisKVStore) Remove(ctx context.Context, key string) (err error) {
	defer obs.Time(ctx, "kv.redis.Remove")(&err)

	if s.Client == nil {
		return errors.New("redis kv store: client is nil")
	}

	if err := s.Client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("remove key %q: %w", key, err)
	}

	return nil
}
