package cashfreewebhook

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryStore struct {
	keys   map[string]string
	setErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "ck:idemp:" + scope + ":" + id
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func TestCheckAndMark_FirstDeliveryThenDuplicate(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, "cashfree:webhook")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatalf("first delivery reported as duplicate")
	}

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !seen {
		t.Fatalf("redelivery not reported as duplicate")
	}
}

func TestDelete_AllowsReprocessing(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, "cashfree:webhook")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	if _, err := guard.CheckAndMark(context.Background(), "evt_1"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := guard.Delete(context.Background(), "evt_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatalf("expected event to be reprocessable after delete")
	}
}

func TestCheckAndMark_StoreErrorSurfaces(t *testing.T) {
	store := newMemoryStore()
	store.setErr = errors.New("redis down")
	guard, err := NewIdempotencyGuard(store, time.Hour, "cashfree:webhook")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	if _, err := guard.CheckAndMark(context.Background(), "evt_1"); err == nil {
		t.Fatalf("expected store error to surface")
	}
}

func TestNewIdempotencyGuard_Validation(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, "scope"); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewIdempotencyGuard(newMemoryStore(), -time.Second, "scope"); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
	if _, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, ""); err == nil {
		t.Fatalf("expected error for empty scope")
	}
}
