package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	userID := uuid.New()

	if _, ok := cache.GetMetrics(context.Background(), userID); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := Metrics{TotalBookings: 5, ActiveBookings: 2, CancelledBookings: 1, HoursBooked: 7.5}
	cache.SetMetrics(context.Background(), userID, want)

	got, ok := cache.GetMetrics(context.Background(), userID)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := newTestCache(t)
	a := uuid.New()
	b := uuid.New()
	cache.SetMetrics(context.Background(), a, Metrics{TotalBookings: 1})
	cache.SetMetrics(context.Background(), b, Metrics{TotalBookings: 2})

	cache.Invalidate(context.Background(), []uuid.UUID{a})

	if _, ok := cache.GetMetrics(context.Background(), a); ok {
		t.Fatal("expected invalidated entry to miss")
	}
	if _, ok := cache.GetMetrics(context.Background(), b); !ok {
		t.Fatal("expected untouched entry to survive")
	}
}
