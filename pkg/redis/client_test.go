package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestSetNXGetExpireDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{cmds: mock}

	if ok, err := client.SetNX(ctx, "k", "v", time.Minute); err != nil || !ok {
		t.Fatalf("setnx failed ok=%t err=%v", ok, err)
	}
	if ok, err := client.SetNX(ctx, "k", "other", time.Minute); err != nil || ok {
		t.Fatalf("expected second setnx to lose, ok=%t err=%v", ok, err)
	}
	got, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected stored value, got %q", got)
	}

	if err := client.Expire(ctx, "k", time.Hour); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Hour {
		t.Fatalf("unexpected expire calls %+v", mock.expireCalls)
	}

	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "k"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
	if err := client.Del(ctx); err != nil {
		t.Fatalf("empty del should be a no-op, got %v", err)
	}
}

func TestPublish(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{cmds: mock}

	if err := client.Publish(context.Background(), "events", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(mock.published["events"]) != 1 || mock.published["events"][0] != `{"a":1}` {
		t.Fatalf("unexpected published payloads %+v", mock.published)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
	if err := client.Publish(context.Background(), "c", nil); err == nil {
		t.Fatal("expected publish on empty client to fail")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.InvoiceKey("INV-1"); got != "it:invoice:INV-1" {
		t.Fatalf("unexpected invoice key %s", got)
	}
	if got := client.InvoiceHistoryKey("INV-1"); got != "it:invoice:INV-1:history" {
		t.Fatalf("unexpected history key %s", got)
	}
	if got := client.InvoiceIndexKey(); got != "it:invoices" {
		t.Fatalf("unexpected index key %s", got)
	}
	if got := client.InvoiceLookupKey("txn_hash", "h0"); got != "it:invoices:txn_hash:h0" {
		t.Fatalf("unexpected lookup key %s", got)
	}
	if got := client.LockKey("maintenance:prod"); got != "it:lock:maintenance:prod" {
		t.Fatalf("unexpected lock key %s", got)
	}

	scoped := NewFromRaw(nil, " tenant ")
	if got := scoped.InvoiceKey("INV-1"); got != "tenant:invoice:INV-1" {
		t.Fatalf("namespace should be trimmed, got %s", got)
	}
	if got := scoped.InvoiceKey(""); got != "tenant:invoice" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected missing url and address to fail")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://localhost:6380/2",
		PoolSize:    7,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 {
		t.Fatalf("unexpected parsed options addr=%s db=%d", opts.Addr, opts.DB)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != 3*time.Second {
		t.Fatalf("expected pool settings to be applied, got pool=%d dial=%v", opts.PoolSize, opts.DialTimeout)
	}

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/0", DB: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 {
		t.Fatalf("expected config db to fill unset url db, got %d", opts.DB)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 4 {
		t.Fatalf("unexpected address options addr=%s db=%d", opts.Addr, opts.DB)
	}
}

type mockCmdable struct {
	data        map[string]string
	published   map[string][]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:      make(map[string]string),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	switch v := message.(type) {
	case []byte:
		m.published[channel] = append(m.published[channel], string(v))
	default:
		m.published[channel] = append(m.published[channel], fmt.Sprint(v))
	}
	return redis.NewIntResult(1, nil)
}
