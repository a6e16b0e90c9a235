// Package redis implements kv.Store on top of a Redis database.
package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/internal/kv"
)

type store struct {
	redisClient *redis.Client
	prefix      string
}

// NewStore returns a kv.Store that keeps its keys, namespaced by prefix, in
// the database reachable through redisClient.
func NewStore(redisClient *redis.Client, prefix string) kv.Store {
	return &store{
		redisClient: redisClient,
		prefix:      prefix,
	}
}

func (s *store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *store) Get(
	ctx context.Context,
	keys ...string,
) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.key(key)
	}
	results, err := s.redisClient.WithContext(ctx).MGet(redisKeys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "error reading keys from redis")
	}
	for i, result := range results {
		if result == nil {
			continue
		}
		value, ok := result.(string)
		if !ok {
			return nil, errors.Errorf(
				"unexpected value of type %T for key %s",
				result,
				redisKeys[i],
			)
		}
		values[keys[i]] = value
	}
	return values, nil
}

func (s *store) PutAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, 2*len(values))
	for key, value := range values {
		pairs = append(pairs, s.key(key), value)
	}
	// MSET is atomic on its own; the transaction keeps it that way should more
	// commands join it.
	if _, err := s.redisClient.WithContext(ctx).TxPipelined(
		func(pipe redis.Pipeliner) error {
			return pipe.MSet(pairs...).Err()
		},
	); err != nil {
		return errors.Wrap(err, "error writing keys to redis")
	}
	return nil
}

func (s *store) DeleteAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.key(key)
	}
	if _, err := s.redisClient.WithContext(ctx).TxPipelined(
		func(pipe redis.Pipeliner) error {
			return pipe.Del(redisKeys...).Err()
		},
	); err != nil {
		return errors.Wrap(err, "error deleting keys from redis")
	}
	return nil
}
