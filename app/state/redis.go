package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisStateKey = "newsmon:state"

// RedisStore keeps the snapshot as a single JSON value under a fixed key.
// The value has no TTL: delivered titles must survive until retention
// trimming removes them, not until a cache expiry does.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Read(ctx context.Context) (string, *Snapshot, error) {
	data, err := s.client.Get(ctx, redisStateKey).Result()
	if err == redis.Nil {
		return redisStateKey, NewSnapshot(), nil
	}
	if err != nil {
		return "", nil, &ReadError{Err: err}
	}

	var feeds map[string][]string
	if err := json.Unmarshal([]byte(data), &feeds); err != nil {
		return "", nil, &ReadError{Err: fmt.Errorf("failed to parse key %s: %w", redisStateKey, err)}
	}

	return redisStateKey, SnapshotFromMap(feeds), nil
}

func (s *RedisStore) Write(ctx context.Context, token string, snap *Snapshot) error {
	data, err := json.Marshal(snap.Map())
	if err != nil {
		return &WriteError{Err: err}
	}

	if err := s.client.Set(ctx, token, data, 0).Err(); err != nil {
		return &WriteError{Err: err}
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
