package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadflow_backend/internal/conversation/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSessionRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, 30*time.Minute)
	ctx := context.Background()

	sess := Session{
		LeadID:         uuid.New(),
		ConversationID: uuid.New(),
		CurrentState:   domain.StateQualification,
		ProjectType:    "e-commerce",
		Budget:         "$25000",
	}

	if err := store.Set(ctx, "+31612345678", sess); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Get(ctx, "+31612345678")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != sess {
		t.Fatalf("got %+v, want %+v", got, sess)
	}
}

func TestSessionMiss(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, 30*time.Minute)

	_, ok, err := store.Get(context.Background(), "+31600000000")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected miss for unknown phone")
	}
}

func TestSessionExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, time.Minute)
	ctx := context.Background()

	if err := store.Set(ctx, "+31611111111", Session{CurrentState: domain.StateGreeting}); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(2 * time.Minute)

	if _, ok, _ := store.Get(ctx, "+31611111111"); ok {
		t.Fatal("session must expire after TTL")
	}
}

func TestSessionDelete(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, time.Minute)
	ctx := context.Background()

	if err := store.Set(ctx, "+31622222222", Session{CurrentState: domain.StateExit}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "+31622222222"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "+31622222222"); ok {
		t.Fatal("deleted session still readable")
	}
}

func TestCorruptSessionTreatedAsMiss(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, time.Minute)

	mr.Set("session:+31633333333", "{not json")

	_, ok, err := store.Get(context.Background(), "+31633333333")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("corrupt entry must read as a miss")
	}
}

func TestRateLimiterWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	rl := NewRateLimiter(rdb, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ok, err := rl.Allow(ctx, "+31644444444")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("request %d within limit rejected", i+1)
		}
	}

	ok, err := rl.Allow(ctx, "+31644444444")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("11th request in window must be rejected")
	}

	// Other phones have their own budget.
	if ok, _ := rl.Allow(ctx, "+31655555555"); !ok {
		t.Fatal("unrelated phone throttled")
	}

	mr.FastForward(61 * time.Second)
	if ok, _ := rl.Allow(ctx, "+31644444444"); !ok {
		t.Fatal("limit must reset after the window")
	}
}

func TestRateLimiterRemaining(t *testing.T) {
	_, rdb := newTestRedis(t)
	rl := NewRateLimiter(rdb, 3, time.Minute)
	ctx := context.Background()

	if n, _ := rl.Remaining(ctx, "+31666666666"); n != 3 {
		t.Fatalf("fresh phone remaining = %d, want 3", n)
	}

	rl.Allow(ctx, "+31666666666")
	rl.Allow(ctx, "+31666666666")

	if n, _ := rl.Remaining(ctx, "+31666666666"); n != 1 {
		t.Fatalf("remaining = %d, want 1", n)
	}

	if err := rl.Reset(ctx, "+31666666666"); err != nil {
		t.Fatal(err)
	}
	if n, _ := rl.Remaining(ctx, "+31666666666"); n != 3 {
		t.Fatalf("remaining after reset = %d, want 3", n)
	}
}
