// Package redis opens the go-redis client used by the redis cache backend.
package redis

import (
	"context"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// Config is the connection configuration of a Client.
type Config struct {
	Address     string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Client wraps a go-redis client.
type Client struct {
	client *goredis.Client
	addr   string
}

// New opens a client and verifies it with a ping bounded by ctx.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, autoerrors.NewConfigurationError("redis address must not be empty", "address")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, autoerrors.ErrConnectionFailed.WithMessagef("cannot reach redis at %s", cfg.Address).WithCause(err)
	}

	logger.Infow("Redis client connected", "address", cfg.Address, "db", cfg.DB)
	return &Client{client: rdb, addr: cfg.Address}, nil
}

// Address returns the server address.
func (c *Client) Address() string { return c.addr }

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client. Calling it twice returns the driver's error.
func (c *Client) Close() error {
	return c.client.Close()
}

// Client returns the underlying go-redis client.
func (c *Client) Client() *goredis.Client {
	return c.client
}
