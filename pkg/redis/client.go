package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "it"

var errNotInitialized = errors.New("redis client not initialized")

// commands is the slice of go-redis used outside transactions: the
// maintenance lease and the lifecycle notifier.
type commands interface {
	Ping(context.Context) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Get(context.Context, string) *redis.StringCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Publish(context.Context, string, any) *redis.IntCmd
}

// Client is the Redis connection shared by the invoice record store, the
// maintenance lease and the lifecycle notifier. Every key it names lives
// under one namespace.
type Client struct {
	cmds      commands
	raw       *redis.Client
	namespace string
}

// Pinger is the readiness probe surface.
type Pinger interface {
	Ping(context.Context) error
}

// Publisher fans a payload out on a Redis channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// New dials Redis and fails unless the server answers PING.
func New(ctx context.Context, cfg config.RedisConfig, namespace string, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	client := NewFromRaw(redis.NewClient(opts), namespace)
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"addr":      opts.Addr,
			"db":        opts.DB,
			"namespace": client.namespace,
		}), "redis connection ready")
	}
	return client, nil
}

// NewFromRaw wraps an existing go-redis client. A blank namespace falls back
// to the default.
func NewFromRaw(raw *redis.Client, namespace string) *Client {
	c := &Client{raw: raw, namespace: strings.TrimSpace(namespace)}
	if c.namespace == "" {
		c.namespace = defaultNamespace
	}
	if raw != nil {
		c.cmds = raw
	}
	return c
}

// optionsFromConfig parses URL when present, else builds from Address. Pool
// and timeout settings from cfg only fill what the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	default:
		return nil, errors.New("redis url or address is required")
	}

	fillInt(&opts.DB, cfg.DB)
	fillInt(&opts.PoolSize, cfg.PoolSize)
	fillInt(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDuration(&opts.DialTimeout, cfg.DialTimeout)
	fillDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillInt(dst *int, value int) {
	if *dst == 0 {
		*dst = value
	}
}

func fillDuration(dst *time.Duration, value time.Duration) {
	if *dst == 0 {
		*dst = value
	}
}

// Raw exposes the go-redis client for WATCH/MULTI transactions.
func (c *Client) Raw() *redis.Client {
	return c.raw
}

// SetNX stores value only when key is absent and reports whether it did.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.cmds == nil {
		return false, errNotInitialized
	}
	return c.cmds.SetNX(ctx, key, value, ttl).Result()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.cmds == nil {
		return "", errNotInitialized
	}
	return c.cmds.Get(ctx, key).Result()
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if c.cmds == nil {
		return errNotInitialized
	}
	return c.cmds.Expire(ctx, key, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.cmds == nil {
		return errNotInitialized
	}
	if len(keys) == 0 {
		return nil
	}
	return c.cmds.Del(ctx, keys...).Err()
}

func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	if c.cmds == nil {
		return errNotInitialized
	}
	return c.cmds.Publish(ctx, channel, payload).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	if c.cmds == nil {
		return errNotInitialized
	}
	return c.cmds.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Key layout:
//
//	<ns>:invoice:<id>          current record, JSON
//	<ns>:invoice:<id>:history  history list, oldest first
//	<ns>:invoices              set of every record id
//	<ns>:invoices:<field>:<v>  record ids carrying v in a lookup field
//	<ns>:lock:<name>           maintenance lease

func (c *Client) InvoiceKey(recordID string) string {
	return c.key("invoice", recordID)
}

func (c *Client) InvoiceHistoryKey(recordID string) string {
	return c.key("invoice", recordID, "history")
}

func (c *Client) InvoiceIndexKey() string {
	return c.key("invoices")
}

func (c *Client) InvoiceLookupKey(field, value string) string {
	return c.key("invoices", field, value)
}

func (c *Client) LockKey(name string) string {
	return c.key("lock", name)
}

func (c *Client) key(parts ...string) string {
	ns := c.namespace
	if ns == "" {
		ns = defaultNamespace
	}
	var b strings.Builder
	b.WriteString(ns)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
