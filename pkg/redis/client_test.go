package redis

import (
	"testing"

	"github.com/craftkart/craftkart-backend/pkg/config"
)

func TestBuildKey(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("cashfree-webhook", "evt_1"); got != "ck:idempotency:cashfree-webhook:evt_1" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := c.buildKey(); got != keyNamespace {
		t.Fatalf("unexpected empty key %q", got)
	}
	if got := c.buildKey("a", "", "b"); got != "ck:a:b" {
		t.Fatalf("expected blank segments skipped, got %q", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error when neither url nor address set")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@localhost:6380/2", PoolSize: 5})
	if err != nil {
		t.Fatalf("options from url: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.PoolSize != 5 {
		t.Fatalf("expected pool size fallback, got %d", opts.PoolSize)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "10.0.0.1:6379", Password: "pw", DB: 1})
	if err != nil {
		t.Fatalf("options from address: %v", err)
	}
	if opts.Addr != "10.0.0.1:6379" || opts.Password != "pw" || opts.DB != 1 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	var c Client
	if err := c.Ping(t.Context()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if _, err := c.Get(t.Context(), "k"); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
}
