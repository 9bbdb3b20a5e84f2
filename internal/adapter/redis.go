package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned when a key is absent from the store
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore defines a minimal session-scoped key-value surface used for
// speculative overlay entries
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=KeyValueStore=MockKeyValueStore
type KeyValueStore interface {
	// Get returns the value for key, or ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key; ttl == 0 means no expiry
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the connection
	Close() error
}

// RealRedisKV wraps the actual Redis client
type RealRedisKV struct {
	client *redis.Client
}

// NewRedisClient creates a redis client with the given settings. The client
// is shared between the overlay store and the API rate limiter.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisKV wraps a redis client as a key-value store
func NewRedisKV(client *redis.Client) KeyValueStore {
	return &RealRedisKV{client: client}
}

func (r *RealRedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RealRedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RealRedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RealRedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RealRedisKV) Close() error {
	return r.client.Close()
}
