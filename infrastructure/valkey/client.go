package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"

	coreconfig "github.com/janushq/janus/core/config"
)

// DefaultConnectTimeout bounds the initial connection attempt.
const DefaultConnectTimeout = 5 * time.Second

// Config holds the settings for creating a Valkey client.
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Client wraps valkey-go with key prefixing. Create it via NewClient and
// inject it where cross-instance state is needed (task status, hub fanout).
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient connects to Valkey and verifies the connection with a ping.
// The caller owns the client and must Close it.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Client{
		inner:     inner,
		keyPrefix: prefix,
	}, nil
}

// NewClientFromGlobalConfig builds a client from the loaded application
// config. Returns nil without error when Valkey is disabled.
func NewClientFromGlobalConfig() (*Client, error) {
	cfg := coreconfig.Global
	if cfg == nil || !cfg.Database.ValkeyEnabled {
		return nil, nil
	}
	return NewClient(Config{
		Address:   cfg.Database.ValkeyAddress,
		Password:  cfg.Database.ValkeyPassword,
		DB:        cfg.Database.ValkeyDB,
		KeyPrefix: cfg.Database.ValkeyKeyPrefix,
	})
}

// Inner exposes the underlying valkey-go client for direct command building.
func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

// Close closes the Valkey connection.
func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key constructs a prefixed key from the given parts.
// Example: Key("regen", "task", id) -> "janus:regen:task:<id>"
func (c *Client) Key(parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(c.keyPrefix, ":")
	}
	key := c.keyPrefix
	for i, p := range parts {
		key += p
		if i < len(parts)-1 {
			key += ":"
		}
	}
	return key
}

// KeyPrefix returns the configured key prefix.
func (c *Client) KeyPrefix() string {
	return c.keyPrefix
}

// Ping tests the connection with the caller's context.
func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsConnected reports whether the connection answers within 500ms.
func (c *Client) IsConnected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return c.Ping(ctx) == nil
}

// IsNil checks if an error represents a Valkey NIL response.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
