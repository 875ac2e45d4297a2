package builtin

import (
	"context"
	"testing"

	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/registry"
)

func TestRecyclableRegisteredAndCheckoutReturnsOneArgPerElement(t *testing.T) {
	factory, ok := registry.LookupDataPool("recyclable")
	if !ok {
		t.Fatal("expected \"recyclable\" to be registered")
	}
	built, err := factory([]string{"alice", "bob"})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	pool, ok := built.(datapool.DataPool)
	if !ok {
		t.Fatalf("factory did not return a datapool.DataPool, got %T", built)
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		item, ok, err := pool.Checkout(context.Background())
		if err != nil || !ok {
			t.Fatalf("checkout %d: ok=%v err=%v", i, ok, err)
		}
		seen[item.Args[0].(string)] = true
	}
	if !seen["alice"] || !seen["bob"] {
		t.Errorf("expected both alice and bob to be checked out, got %v", seen)
	}
}

func TestIterableRangeYieldsEachValueOnceThenExhausts(t *testing.T) {
	factory, ok := registry.LookupDataPool("iterable_range")
	if !ok {
		t.Fatal("expected \"iterable_range\" to be registered")
	}
	built, err := factory([]string{"0", "3"})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	pool := built.(datapool.DataPool)

	ctx := context.Background()
	var got []int
	for {
		item, ok, err := pool.Checkout(ctx)
		if err != nil {
			if err == datapool.Exhausted {
				break
			}
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("expected ok=true or Exhausted, got ok=false with nil error")
		}
		got = append(got, item.Args[0].(int))
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("expected [0 1 2], got %v", got)
	}
}

func TestIterableRangeRejectsNonPositiveStep(t *testing.T) {
	factory, _ := registry.LookupDataPool("iterable_range")
	if _, err := factory([]string{"0", "10", "0"}); err == nil {
		t.Fatal("expected an error for a zero step")
	}
}

func TestSQLFactoryRejectsTooFewArgs(t *testing.T) {
	factory, ok := registry.LookupDataPool("sql")
	if !ok {
		t.Fatal("expected \"sql\" to be registered")
	}
	if _, err := factory([]string{"postgres://x"}); err == nil {
		t.Fatal("expected an error when conn_str/cols/query are not all supplied")
	}
}
