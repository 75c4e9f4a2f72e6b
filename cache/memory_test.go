package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); err != ErrMiss {
		t.Fatalf("Get(missing) err = %v; want ErrMiss", err)
	}

	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get(k) = %q, %v; want %q, nil", got, err, "v")
	}

	if err := m.Del(ctx, "k"); err != nil {
		t.Fatalf("Del error: %v", err)
	}
	if _, err := m.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("Get after Del err = %v; want ErrMiss", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, err := m.Get(ctx, "k"); err != nil {
		t.Fatalf("value should be readable before expiry: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("Get after expiry err = %v; want ErrMiss", err)
	}
}

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.AcquireLock(ctx, "lock", time.Minute)
	if err != nil || !ok {
		t.Fatalf("AcquireLock = %v, %v; want true, nil", ok, err)
	}

	ok, err = m.AcquireLock(ctx, "lock", time.Minute)
	if err != nil || ok {
		t.Fatalf("second AcquireLock = %v, %v; want false, nil", ok, err)
	}

	if err := m.ReleaseLock(ctx, "lock"); err != nil {
		t.Fatalf("ReleaseLock error: %v", err)
	}
	ok, err = m.AcquireLock(ctx, "lock", time.Minute)
	if err != nil || !ok {
		t.Fatalf("AcquireLock after release = %v, %v; want true, nil", ok, err)
	}
}
