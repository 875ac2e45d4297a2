package datapool

import (
	"context"
	"errors"
	"testing"
)

func TestRecyclablePoolAtMostOneHolder(t *testing.T) {
	pool := NewRecyclablePool([][]any{{1}, {2}})

	ctx := context.Background()
	first, ok, err := pool.Checkout(ctx)
	if err != nil || !ok {
		t.Fatalf("expected a checkout, got ok=%v err=%v", ok, err)
	}
	second, ok, err := pool.Checkout(ctx)
	if err != nil || !ok {
		t.Fatalf("expected a second checkout, got ok=%v err=%v", ok, err)
	}
	if first.ID == second.ID {
		t.Fatalf("same item handed out twice: %d", first.ID)
	}

	if _, ok, err := pool.Checkout(ctx); ok || err != nil {
		t.Fatalf("expected no item available, got ok=%v err=%v", ok, err)
	}

	pool.Checkin(first.ID)
	third, ok, err := pool.Checkout(ctx)
	if err != nil || !ok {
		t.Fatalf("expected checkin to return an item, got ok=%v err=%v", ok, err)
	}
	if third.ID != first.ID {
		t.Fatalf("expected recycled item %d, got %d", first.ID, third.ID)
	}
}

func TestRecyclablePoolNeverExhaustsOnItsOwn(t *testing.T) {
	pool := NewRecyclablePool([][]any{{1}})
	ctx := context.Background()

	item, _, _ := pool.Checkout(ctx)
	pool.Checkin(item.ID)
	// Many checkout/checkin cycles should never surface Exhausted.
	for i := 0; i < 1000; i++ {
		item, ok, err := pool.Checkout(ctx)
		if err != nil || !ok {
			t.Fatalf("iteration %d: unexpected exhaustion", i)
		}
		pool.Checkin(item.ID)
	}
}

func TestRecyclablePoolExhaust(t *testing.T) {
	pool := NewRecyclablePool([][]any{{1}})
	pool.Exhaust()

	_, ok, err := pool.Checkout(context.Background())
	if ok || !errors.Is(err, Exhausted) {
		t.Fatalf("expected Exhausted after Exhaust(), got ok=%v err=%v", ok, err)
	}
}

func TestIterablePoolOneShot(t *testing.T) {
	pool := FromSlice([][]any{{1}, {2}, {3}})
	ctx := context.Background()

	seen := map[uint64]bool{}
	for i := 0; i < 3; i++ {
		item, ok, err := pool.Checkout(ctx)
		if err != nil || !ok {
			t.Fatalf("iteration %d: expected an item, got ok=%v err=%v", i, ok, err)
		}
		if seen[item.ID] {
			t.Fatalf("id %d yielded twice", item.ID)
		}
		seen[item.ID] = true
	}

	if _, ok, err := pool.Checkout(ctx); ok || !errors.Is(err, Exhausted) {
		t.Fatalf("expected Exhausted once the sequence is spent, got ok=%v err=%v", ok, err)
	}

	// Checkin on an exhausted iterable pool is a documented no-op.
	pool.Checkin(1)
	if _, ok, _ := pool.Checkout(ctx); ok {
		t.Fatalf("checkin on an iterable pool must not resurrect an item")
	}
}

func TestDataPoolManagerCheckoutCheckin(t *testing.T) {
	mgr := NewManager()
	id := mgr.Register(NewRecyclablePool([][]any{{1}}))

	ctx := context.Background()
	item, ok, err := mgr.Checkout(ctx, id)
	if err != nil || !ok {
		t.Fatalf("expected a checkout, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mgr.Checkout(ctx, id); ok {
		t.Fatalf("expected no item available until checkin")
	}
	mgr.Checkin(id, item.ID)
	if _, ok, err := mgr.Checkout(ctx, id); !ok || err != nil {
		t.Fatalf("expected checkin to restore availability, got ok=%v err=%v", ok, err)
	}

	mgr.Remove(id)
	if _, ok, err := mgr.Checkout(ctx, id); ok || !errors.Is(err, Exhausted) {
		t.Fatalf("expected Exhausted for a removed pool id, got ok=%v err=%v", ok, err)
	}
}
