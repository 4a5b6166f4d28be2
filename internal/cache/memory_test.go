package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v err %v, want miss", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get(k) = ok %v err %v, want hit", ok, err)
	}
	if string(got) != "v1" {
		t.Errorf("Get(k) = %q, want %q", got, "v1")
	}

	// Mutating the returned slice must not affect the stored value.
	got[0] = 'X'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("stored value mutated to %q", again)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entry expired before TTL")
	}

	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry still present at TTL")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"))
	_ = c.Set(ctx, "b", []byte("2"))

	if err := c.Delete(ctx, "a", "nope"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("a still cached after Delete")
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Error("b evicted by unrelated Delete")
	}
}

func TestMemoryCache_Incr(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, "gen")
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if got != want {
			t.Errorf("Incr = %d, want %d", got, want)
		}
	}

	// Counters outlive the TTL.
	now = now.Add(time.Hour)
	raw, ok, err := c.Get(ctx, "gen")
	if err != nil || !ok {
		t.Fatalf("Get(gen) = ok %v err %v, want hit", ok, err)
	}
	if string(raw) != "3" {
		t.Errorf("Get(gen) = %q, want 3", raw)
	}

	_ = c.Set(ctx, "word", []byte("abc"))
	if _, err := c.Incr(ctx, "word"); err == nil {
		t.Error("Incr on non-integer value returned nil error")
	}
}
