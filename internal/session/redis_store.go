package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps editing sessions in Redis with a native TTL. Selected
// when REDIS_URL is configured; lets several API replicas share in-flight
// sessions. The record is stored as one JSON value so the four fields stay
// atomic per key.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "docsession:", ttl: ttl}, nil
}

func (s *RedisStore) key(documentID string) string {
	return s.prefix + documentID
}

// Put stores the record as a single value with the store TTL.
func (s *RedisStore) Put(ctx context.Context, documentID string, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	if err := s.client.Set(ctx, s.key(documentID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// Get retrieves the record; an expired or unknown key is ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, documentID string) (Record, error) {
	payload, err := s.client.Get(ctx, s.key(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}

	if err != nil {
		return Record{}, fmt.Errorf("lookup session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal session record: %w", err)
	}

	return rec, nil
}

// Evict deletes the session; unknown keys are a no-op.
func (s *RedisStore) Evict(ctx context.Context, documentID string) error {
	if err := s.client.Del(ctx, s.key(documentID)).Err(); err != nil {
		return fmt.Errorf("evict session: %w", err)
	}

	return nil
}

// Sweep is a no-op: Redis expires keys natively.
func (s *RedisStore) Sweep(context.Context, time.Time) int {
	return 0
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
