// Package redisclient wraps go-redis with key prefixing and the small set of
// queue helpers convcom needs.
package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a prefixed go-redis client.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// New creates a client from a redis:// or rediss:// URL. Every key built
// with Key is namespaced under prefix.
func New(url, prefix string) (*Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 8 * time.Millisecond
	opt.MaxRetryBackoff = 512 * time.Millisecond

	return &Client{rdb: redis.NewClient(opt), prefix: prefix}, nil
}

// Ping checks Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close shuts down the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Unwrap returns the underlying go-redis client.
func (c *Client) Unwrap() *redis.Client {
	return c.rdb
}

// Key joins parts with ":" and applies the prefix.
func (c *Client) Key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

// Enqueue JSON-encodes v and appends it to the named list. Workers pop from
// the head, so jobs run in FIFO order.
func (c *Client) Enqueue(ctx context.Context, queue string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding queue payload: %w", err)
	}
	if err := c.rdb.RPush(ctx, c.Key(queue), data).Err(); err != nil {
		return fmt.Errorf("pushing to %s: %w", queue, err)
	}
	return nil
}

// SetJSON stores v JSON-encoded under the prefixed key with a TTL.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.rdb.Set(ctx, c.Key(key), data, ttl).Err()
}
