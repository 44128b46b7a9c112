package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedUser struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return NewRedisWithClient(client, "test", ttl), srv
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	want := cachedUser{ID: "u1", Status: "active"}
	if err := c.Set(ctx, "user:u1", want); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got cachedUser
	if err := c.Get(ctx, "user:u1", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestGetReturnsErrMissForAbsentKey(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var got cachedUser
	if err := c.Get(context.Background(), "user:absent", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	c, srv := newTestCache(t, time.Second)
	ctx := context.Background()

	if err := c.Set(ctx, "user:u1", cachedUser{ID: "u1"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	srv.FastForward(2 * time.Second)

	var got cachedUser
	if err := c.Get(ctx, "user:u1", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after TTL, got %v", err)
	}
}

func TestDeleteInvalidatesEntry(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "user:u1", cachedUser{ID: "u1"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := c.Delete(ctx, "user:u1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var got cachedUser
	if err := c.Get(ctx, "user:u1", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}

func TestDeleteAbsentKeyIsNoError(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	if err := c.Delete(context.Background(), "user:absent"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
