package redisadapter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestDedup(t *testing.T) (*EventDedup, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	t.Cleanup(mr.Close)

	dedup, err := NewEventDedup("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("new dedup: %v", err)
	}
	t.Cleanup(func() { _ = dedup.Close() })
	return dedup, mr
}

func TestReserveIsExclusiveUntilTTL(t *testing.T) {
	dedup, mr := newTestDedup(t)
	ctx := context.Background()

	ok, err := dedup.Reserve(ctx, "evt_1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first reservation, got %v %v", ok, err)
	}
	ok, err = dedup.Reserve(ctx, "evt_1", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected duplicate refused, got %v %v", ok, err)
	}
	if !mr.Exists(defaultPrefix + "evt_1") {
		t.Fatal("expected prefixed key in redis")
	}

	mr.FastForward(2 * time.Minute)
	ok, err = dedup.Reserve(ctx, "evt_1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected reservation after expiry, got %v %v", ok, err)
	}
}

func TestReleaseDeletesReservation(t *testing.T) {
	dedup, _ := newTestDedup(t)
	ctx := context.Background()

	if ok, _ := dedup.Reserve(ctx, "evt_2", time.Minute); !ok {
		t.Fatal("expected reservation")
	}
	if err := dedup.Release(ctx, "evt_2"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := dedup.Reserve(ctx, "evt_2", time.Minute); !ok {
		t.Fatal("expected reservation after release")
	}
}

func TestReserveReportsUnavailableRedis(t *testing.T) {
	dedup, mr := newTestDedup(t)
	mr.Close()

	if _, err := dedup.Reserve(context.Background(), "evt_3", time.Minute); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
