package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/redis/go-redis/v9"
)

// RedisParams defines connection parameters for the redis backend
type RedisParams struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every key, lets several apps share one redis db

	ConnectAttempts int           // ping attempts on start, 1 if not set
	ConnectDelay    time.Duration // initial delay between ping attempts, grows with backoff
}

// Redis keeps keys as plain redis strings
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redis and verifies the connection with ping, retried with backoff
func NewRedis(ctx context.Context, params RedisParams) (*Redis, error) {
	if params.Addr == "" {
		return nil, errors.New("empty redis address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     params.Addr,
		Password: params.Password,
		DB:       params.DB,
	})

	attempts := params.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := params.ConnectDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	rptr := repeater.New(&strategy.Backoff{Repeats: attempts, Duration: delay, Factor: 2})
	err := rptr.Do(ctx, func() error {
		if e := client.Ping(ctx).Err(); e != nil {
			log.Printf("[DEBUG] redis ping to %s failed: %v", params.Addr, e)
			return e
		}
		return nil
	})
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close redis client: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", params.Addr, err)
	}

	log.Printf("[INFO] connected to redis %s, db %d", params.Addr, params.DB)
	return &Redis{client: client, prefix: params.Prefix}, nil
}

// Get returns value for the key or ErrNotFound
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %q: %w", key, err)
	}
	return val, nil
}

// Set stores value without expiration
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Close closes the client
func (r *Redis) Close() error {
	return r.client.Close()
}

// String returns the server address, used in logs
func (r *Redis) String() string {
	return fmt.Sprintf("redis:%s/%d", r.client.Options().Addr, r.client.Options().DB)
}
