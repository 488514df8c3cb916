package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"easybingo/card"
)

// DefaultRedisKey holds the collection when no key is configured.
const DefaultRedisKey = "easybingo:cards"

// Redis stores the collection as one JSON value under a single key.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// DialRedis connects to addr and checks the server answers.
func DialRedis(ctx context.Context, addr, key string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedis(client, key), nil
}

func (r *Redis) Load(ctx context.Context) ([]card.Card, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decode(data)
}

func (r *Redis) Save(ctx context.Context, cards []card.Card) error {
	data, err := encode(cards)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
