// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "locator:loc:"

// RedisStore keeps resolved locations in Redis as JSON. Keys also carry a
// Redis expiry equal to the cache TTL so abandoned entries disappear on their own.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl stores keys without expiry.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (*ResolvedLocation, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading %s from redis: %w", key, err)
	}

	var loc ResolvedLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, false, fmt.Errorf("decoding cached location %s: %w", key, err)
	}

	return &loc, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, loc *ResolvedLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encoding location: %w", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing %s to redis: %w", key, err)
	}

	return nil
}

// Purge implements Store.
func (s *RedisStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	n := 0

	err := s.scan(ctx, func(key string) error {
		loc, ok, err := s.Get(ctx, key)
		if err != nil || !ok || !loc.CreatedAt.Before(olderThan) {
			return nil //nolint:nilerr // undecodable entries are left for Redis to expire
		}

		if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}

		n++

		return nil
	})

	return n, err
}

// Len implements Store.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(string) error {
		n++

		return nil
	})

	return n, err
}

func (s *RedisStore) scan(ctx context.Context, fn func(key string) error) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()[len(redisKeyPrefix):]); err != nil {
			return err
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning redis keys: %w", err)
	}

	return nil
}
