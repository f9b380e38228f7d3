package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const domainKeyPrefix = "gatehouse:domain:"

// Client is a lookaside cache for host→tenant resolution. All methods are
// soft: callers treat a miss and an error the same way and fall through to
// the database.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetDomainTenant returns the cached tenant id for host, or "" on a miss.
func (c *Client) GetDomainTenant(ctx context.Context, host string) (string, error) {
	value, err := c.rdb.Get(ctx, domainKeyPrefix+host).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (c *Client) SetDomainTenant(ctx context.Context, host, tenantID string) error {
	return c.rdb.Set(ctx, domainKeyPrefix+host, tenantID, c.ttl).Err()
}

func (c *Client) DeleteDomainTenant(ctx context.Context, host string) error {
	return c.rdb.Del(ctx, domainKeyPrefix+host).Err()
}

// Redis exposes the underlying client for collaborators that share the
// connection, such as the rate limiter.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
